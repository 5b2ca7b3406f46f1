package hcl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/yonghaozhang/smarthome/internal/merge"
	"github.com/yonghaozhang/smarthome/internal/thing"
)

const demoDescription = `
channel_type "temperature" {
	item_type   = "Number"
	label       = "Temperature"
	description = "Current temperature"
	tags        = ["Measurement"]

	config {
		parameter "offset" {
			type        = number
			description = "Calibration offset"
			default     = 0
		}
	}
}

channel_type "motion" {
	kind      = "trigger"
	item_type = "Switch"
}

channel_group_type "climate" {
	label = "Climate"

	channel "temperature" {
		type = "temperature"
	}
	channel "battery" {
		type = "system:battery-level"
	}
}

thing_type "sensor" {
	label       = "Multi Sensor"
	description = "Battery powered multi sensor"

	group "climate" {
		type = "climate"
	}
	channel "motion" {
		type = "motion"
	}

	config {
		uri = "thing-type:demo:sensor:custom"

		parameter "poll_interval" {
			type     = number
			default  = 60
			required = true
		}
		parameter "zones" {
			type = list(string)
		}
	}
}
`

func TestLoader_ParseThingDescription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	records, err := NewLoader().Parse(ctx, "demo", "demo.hcl", []byte(demoDescription))
	require.NoError(t, err)
	require.Len(t, records, 4)

	ct, ok := records[0].(*merge.ChannelTypeRecord)
	require.True(t, ok)
	require.Equal(t, "demo:temperature", ct.ChannelType.UID)
	require.Equal(t, thing.KindState, ct.ChannelType.Kind, "kind defaults to state")
	require.Equal(t, "Number", ct.ChannelType.ItemType)
	require.Equal(t, []string{"Measurement"}, ct.ChannelType.Tags)

	require.NotNil(t, ct.Config)
	require.Equal(t, "channel-type:demo:temperature", ct.Config.URI, "config URI defaults to the type UID")
	require.Len(t, ct.Config.Parameters, 1)
	offset := ct.Config.Parameters[0]
	require.Equal(t, "offset", offset.Name)
	require.Equal(t, cty.Number, offset.Type)
	require.NotNil(t, offset.Default)
	require.True(t, offset.Default.RawEquals(cty.NumberIntVal(0)))

	motion, ok := records[1].(*merge.ChannelTypeRecord)
	require.True(t, ok)
	require.Equal(t, thing.KindTrigger, motion.ChannelType.Kind)
	require.Nil(t, motion.Config)

	gt, ok := records[2].(*merge.ChannelGroupTypeRecord)
	require.True(t, ok)
	require.Equal(t, "demo:climate", gt.UID)
	require.Equal(t, []merge.ChannelRef{
		{ID: "temperature", TypeUID: "demo:temperature"},
		{ID: "battery", TypeUID: "system:battery-level"},
	}, gt.Channels, "qualified references keep their binding prefix")

	tt, ok := records[3].(*merge.ThingTypeRecord)
	require.True(t, ok)
	require.Equal(t, "demo:sensor", tt.UID)
	require.Equal(t, []merge.GroupRef{{ID: "climate", TypeUID: "demo:climate"}}, tt.Groups)
	require.Equal(t, []merge.ChannelRef{{ID: "motion", TypeUID: "demo:motion"}}, tt.Channels)

	require.NotNil(t, tt.Config)
	require.Equal(t, "thing-type:demo:sensor:custom", tt.Config.URI)
	require.Len(t, tt.Config.Parameters, 2)
	require.True(t, tt.Config.Parameters[0].Required)
	require.Equal(t, cty.List(cty.String), tt.Config.Parameters[1].Type)
}

func TestLoader_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `channel_type "x" {`,
			wantErr: "failed to parse",
		},
		{
			name: "unknown block",
			src: `
			bridge_type "b" {}
			`,
			wantErr: "failed to decode",
		},
		{
			name: "invalid channel kind",
			src: `
			channel_type "x" {
				kind = "stateful"
			}
			`,
			wantErr: "invalid channel kind",
		},
		{
			name: "invalid parameter type",
			src: `
			thing_type "x" {
				config {
					parameter "p" {
						type = tuple(string)
					}
				}
			}
			`,
			wantErr: "unknown type constructor",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoader().Parse(ctx, "demo", tc.name+".hcl", []byte(tc.src))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestTypeExprToCtyType_Primitives(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		expr string
		want cty.Type
	}{
		{"string", cty.String},
		{"number", cty.Number},
		{"bool", cty.Bool},
		{"any", cty.DynamicPseudoType},
		{"list(string)", cty.List(cty.String)},
		{"map(number)", cty.Map(cty.Number)},
		{"set(bool)", cty.Set(cty.Bool)},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()
			src := `
			thing_type "x" {
				config {
					parameter "p" {
						type = ` + tc.expr + `
					}
				}
			}
			`
			records, err := NewLoader().Parse(ctx, "demo", "types.hcl", []byte(src))
			require.NoError(t, err)
			require.Len(t, records, 1)

			tt := records[0].(*merge.ThingTypeRecord)
			require.True(t, tc.want.Equals(tt.Config.Parameters[0].Type))
		})
	}
}
