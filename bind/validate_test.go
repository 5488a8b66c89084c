// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamespaceToPath(t *testing.T) {
	testCases := []struct {
		Name      string
		Namespace string
		Path      string
	}{
		{
			Name:      "top level field",
			Namespace: "Config.Name",
			Path:      "Name",
		},
		{
			Name:      "nested field",
			Namespace: "Config.Database.Host",
			Path:      "Database:Host",
		},
		{
			Name:      "list element field",
			Namespace: "Config.Items[2].Name",
			Path:      "Items__2__Name",
		},
		{
			Name:      "dictionary entry field",
			Namespace: "Config.Services[api].Timeout",
			Path:      "Services__api__Timeout",
		},
		{
			Name:      "list element without trailing field",
			Namespace: "Config.Tags[0]",
			Path:      "Tags__0",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			require.Equal(t, testCase.Path, namespaceToPath(testCase.Namespace))
		})
	}
}
