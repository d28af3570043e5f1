// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// set with -ldflags at release time
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent is sent with every outgoing catalog and library request.
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("feedarr/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// String returns a human readable multi-line description of the build.
func String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild date: %s\n", Version, Commit, Date)
}

// JSON returns the build info as a JSON object.
func JSON() ([]byte, error) {
	return json.Marshal(struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
		Date    string `json:"date"`
	}{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
	})
}
