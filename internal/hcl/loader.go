package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/merge"
	"github.com/yonghaozhang/smarthome/internal/schema"
)

// Loader parses thing-description files. It holds no state, so one instance
// can be shared by concurrent loader workers; each call uses its own parser.
type Loader struct{}

// NewLoader creates a thing-description loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile parses one thing-description file and returns the raw records it
// contains, attributed to the given binding.
func (l *Loader) LoadFile(ctx context.Context, bindingID, path string) ([]merge.Record, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return l.decode(ctx, bindingID, path, file.Body)
}

// Parse parses thing-description source from memory. The filename is only
// used for diagnostics.
func (l *Loader) Parse(ctx context.Context, bindingID, filename string, src []byte) ([]merge.Record, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	return l.decode(ctx, bindingID, filename, file.Body)
}

// decode maps the file body onto the schema structs and translates each block
// into a merge record.
func (l *Loader) decode(ctx context.Context, bindingID, filename string, body hcl.Body) ([]merge.Record, error) {
	logger := ctxlog.FromContext(ctx)

	var td schema.ThingDescription
	if diags := gohcl.DecodeBody(body, nil, &td); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode thing description %s: %w", filename, diags)
	}

	records := make([]merge.Record, 0,
		len(td.ChannelTypes)+len(td.ChannelGroupTypes)+len(td.ThingTypes))

	for _, ct := range td.ChannelTypes {
		rec, err := l.translateChannelType(ctx, bindingID, ct)
		if err != nil {
			return nil, fmt.Errorf("channel type %q in %s: %w", ct.ID, filename, err)
		}
		records = append(records, rec)
	}
	for _, gt := range td.ChannelGroupTypes {
		records = append(records, l.translateChannelGroupType(bindingID, gt))
	}
	for _, tt := range td.ThingTypes {
		rec, err := l.translateThingType(ctx, bindingID, tt)
		if err != nil {
			return nil, fmt.Errorf("thing type %q in %s: %w", tt.ID, filename, err)
		}
		records = append(records, rec)
	}

	logger.Debug("Decoded thing description file.", "file", filename,
		"binding", bindingID, "records", len(records))
	return records, nil
}
