package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapRemotePath(t *testing.T) {
	tests := []struct {
		name       string
		remoteRoot string
		relPath    string
		exp        string
	}{
		{
			name:       "EmptyRelPathReturnsRootUnchanged",
			remoteRoot: "/home/user/app",
			relPath:    "",
			exp:        "/home/user/app",
		},
		{
			name:       "DotRelPathReturnsRootUnchanged",
			remoteRoot: "/home/user/app",
			relPath:    ".",
			exp:        "/home/user/app",
		},
		{
			name:       "SimpleJoin",
			remoteRoot: "/home/user/app",
			relPath:    "a.txt",
			exp:        "/home/user/app/a.txt",
		},
		{
			name:       "NestedJoin",
			remoteRoot: "/home/user/app",
			relPath:    "sub/b.txt",
			exp:        "/home/user/app/sub/b.txt",
		},
		{
			name:       "NoDoubledSlash",
			remoteRoot: "/home/user/app/",
			relPath:    "a.txt",
			exp:        "/home/user/app/a.txt",
		},
		{
			name:       "SlashRoot",
			remoteRoot: "/",
			relPath:    "a.txt",
			exp:        "/a.txt",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mapped := MapRemotePath(test.remoteRoot, test.relPath)
			assert.Equal(t, test.exp, mapped)
			assert.NotContains(t, mapped, "//")
			if test.remoteRoot != "/" {
				assert.False(t, strings.HasSuffix(mapped, "/"))
			}
		})
	}
}
