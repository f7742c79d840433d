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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParsePrograms(t *testing.T, doc string) map[string]*Program {
	t.Helper()
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	return cfg.Programs
}

func TestDiffPrograms(t *testing.T) {
	old := mustParsePrograms(t, `
programs:
  keep:
    command: /bin/true
  change:
    command: /bin/true
    replicas: 1
  remove:
    command: /bin/true
`)
	new := mustParsePrograms(t, `
programs:
  keep:
    command: /bin/true
  change:
    command: /bin/true
    replicas: 4
  add:
    command: /bin/false
`)

	d := DiffPrograms(old, new)
	assert.Equal(t, []string{"add"}, d.Added)
	assert.Equal(t, []string{"remove"}, d.Removed)
	assert.Equal(t, []string{"change"}, d.Changed)
	assert.False(t, d.Empty())
}

func TestDiffPrograms_Identical(t *testing.T) {
	doc := `
programs:
  a:
    command: /bin/true
    environment: {X: "1"}
`
	d := DiffPrograms(mustParsePrograms(t, doc), mustParsePrograms(t, doc))
	assert.True(t, d.Empty())
}
