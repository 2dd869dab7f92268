// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"net/url"
	"strings"
)

// ContainerOf derives container name from source path or URL extension.
//
// Returns lowercase extension without the dot, or "" when there is none.
func ContainerOf(source string) string {
	p := source
	if IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}
	// Both separators are accepted, sources may come from any host.
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	i := strings.LastIndexByte(p, '.')
	if i < 0 || i == len(p)-1 {
		return ""
	}
	return strings.ToLower(p[i+1:])
}

// IsURL reports whether source looks like a URL with a scheme rather than a
// file system path. Single letter schemes are Windows drive letters.
func IsURL(source string) bool {
	i := strings.Index(source, "://")
	return i > 1
}
