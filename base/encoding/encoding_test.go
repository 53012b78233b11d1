// Copyright 2024 sieve Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "hello"))
	s, err := ReadString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestGob(t *testing.T) {
	type payload struct {
		Name   string
		Values []float64
	}
	var buf bytes.Buffer
	require.NoError(t, WriteGob(&buf, payload{Name: "x", Values: []float64{1, 2}}))
	var restored payload
	require.NoError(t, ReadGob(&buf, &restored))
	assert.Equal(t, "x", restored.Name)
	assert.Equal(t, []float64{1, 2}, restored.Values)
}
