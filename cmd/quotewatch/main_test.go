package main

import "testing"

func TestConfigDirArg(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"run"}, ""},
		{"space form", []string{"run", "--config", "/tmp/cfg"}, "/tmp/cfg"},
		{"equals form", []string{"run", "--config=/tmp/cfg"}, "/tmp/cfg"},
		{"last occurrence wins", []string{"--config", "/a", "--config=/b"}, "/b"},
		{"dangling flag", []string{"run", "--config"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := configDirArg(tc.args); got != tc.want {
				t.Errorf("configDirArg(%v) = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}
