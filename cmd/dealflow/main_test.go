package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigPathFromArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"deal", "list"}, ""},
		{"separate value", []string{"--config", "/tmp/a.yaml", "deal", "list"}, "/tmp/a.yaml"},
		{"equals form", []string{"deal", "move", "3", "closed", "--config=/tmp/b.yaml"}, "/tmp/b.yaml"},
		{"other flags ignored", []string{"board", "--print", "--width", "80", "--config", "c.yaml"}, "c.yaml"},
		{"after terminator", []string{"deal", "create", "--", "--config", "x.yaml"}, ""},
		{"missing value", []string{"--config"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, configPathFromArgs(tc.args))
		})
	}
}
