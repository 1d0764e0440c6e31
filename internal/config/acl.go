package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// AllowLists seeds the reviewer allow-lists from a file kept next to the deployment.
//
//	global_reviewers: [111, 222]
//	reviewers: [333]
type AllowLists struct {
	GlobalReviewers []int64 `yaml:"global_reviewers"`
	Reviewers       []int64 `yaml:"reviewers"`
}

func LoadAllowLists(path string) (*AllowLists, error) {
	lists := &AllowLists{}
	if path == "" {
		return lists, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read acl file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, lists); err != nil {
		return nil, fmt.Errorf("parse acl file: %w", err)
	}
	return lists, nil
}
