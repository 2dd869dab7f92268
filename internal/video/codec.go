// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import "strings"

// UnknownCodec is reported when nothing is known about a codec.
const UnknownCodec = "unknown"

// Codec guesses by container extension, used only when probe supplied no tag.
var codecByContainer = map[string]string{
	"mp4":  "h264",
	"m4v":  "h264",
	"webm": "vp8",
	"ogv":  "theora",
}

// FourCC packs up to four characters of s into uint32, first character in the
// most significant byte. Shorter strings are padded with spaces.
func FourCC(s string) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = ' '
		if i < len(s) {
			b[i] = s[i]
		}
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// DecodeFourCC unpacks four character code into a trimmed string.
//
// Returns "" if any of the significant bytes is not printable ASCII.
func DecodeFourCC(v uint32) string {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	s := strings.Trim(string(b), " \x00")
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return ""
		}
	}
	return s
}

// IdentifyCodec turns raw codec tag into codec name.
//
// Binary four character code takes precedence, then textual name. When probe
// had no tag at all, codec is guessed from source extension. Never fails,
// UnknownCodec is returned when nothing else works.
func IdentifyCodec(tag CodecTag, source string) string {
	if tag.FourCC != 0 {
		if s := DecodeFourCC(tag.FourCC); s != "" {
			return s
		}
	}
	if name := strings.TrimSpace(tag.Name); name != "" {
		return strings.ToLower(name)
	}
	if c, ok := codecByContainer[ContainerOf(source)]; ok {
		return c
	}
	return UnknownCodec
}
