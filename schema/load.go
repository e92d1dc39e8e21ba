package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// LoadDescriptorSet reads and concatenates FileDescriptorSets. Files ending in
// .json are protojson; anything else is binary (protoc --descriptor_set_out).
// A file repeated across sets is kept once.
func LoadDescriptorSet(paths ...string) (*descriptorpb.FileDescriptorSet, error) {
	out := &descriptorpb.FileDescriptorSet{}
	seen := map[string]bool{}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		set := &descriptorpb.FileDescriptorSet{}
		if strings.EqualFold(filepath.Ext(p), ".json") {
			err = protojson.Unmarshal(data, set)
		} else {
			err = proto.Unmarshal(data, set)
		}
		if err != nil {
			return nil, fmt.Errorf("schema: decode %s: %w", p, err)
		}
		for _, f := range set.GetFile() {
			if seen[f.GetName()] {
				continue
			}
			seen[f.GetName()] = true
			out.File = append(out.File, f)
		}
	}
	return out, nil
}

// Load builds a Registry from descriptor set files.
func Load(paths []string, opts ...Option) (*Registry, error) {
	set, err := LoadDescriptorSet(paths...)
	if err != nil {
		return nil, err
	}
	return FromDescriptorSet(set, opts...)
}
