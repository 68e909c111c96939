package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegion(t *testing.T) {
	tests := []struct {
		location string
		az       string
		expected string
	}{
		{"US West (Oregon)", "", "us-west-2"},
		{"US West (Oregon)", "eu-west-1a", "us-west-2"},
		{"South America (Sao Paulo)", "", "sa-east-1"},
		{"Mars (Olympus Mons)", "us-east-1a", "us-east-1"},
		{"", "us-east-1a", "us-east-1"},
		{"", "ap-southeast-2", "ap-southeast-2"},
		{"", "", NoRegion},
		{"Any", "", NoRegion},
		{"", "global", NoRegion},
		{"", "a", NoRegion},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ResolveRegion(tt.location, tt.az), "location %q, availability zone %q", tt.location, tt.az)
	}
}
