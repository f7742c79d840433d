// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "sort"

// Diff describes the difference between two program sets, keyed by name.
type Diff struct {
	// Added lists programs present only in the new set.
	Added []string
	// Removed lists programs present only in the old set.
	Removed []string
	// Changed lists programs present in both sets with different specs.
	Changed []string
}

// Empty reports whether the diff contains no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffPrograms computes the difference between the old and new program sets.
func DiffPrograms(old, new map[string]*Program) Diff {
	var d Diff

	for name, p := range new {
		if oldP, ok := old[name]; !ok {
			d.Added = append(d.Added, name)
		} else if !oldP.Equal(p) {
			d.Changed = append(d.Changed, name)
		}
	}

	for name := range old {
		if _, ok := new[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}
