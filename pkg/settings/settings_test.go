package settings

import (
	"testing"
)

func TestNewCliParams(t *testing.T) {
	tests := []struct {
		name string
		want *Run
	}{
		{
			name: "default CLI params",
			want: &Run{
				MinLogLevel: 0,
				Interactive: false,
				NoColor:     false,
				ExitOnError: true,
				Selector: SelectorSettings{
					EnableFields:     true,
					EnableProtocols:  false,
					NoProtocolOption: "Omit protocol",
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCliParams()
			if *got != *tt.want {
				t.Errorf("NewCliParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVersionInformationDefaults(t *testing.T) {
	if VersionInformation.BuildVersion == "" {
		t.Fatal("VersionInformation.BuildVersion should have a default")
	}
	if CliBinaryName != "paramsel" {
		t.Errorf("CliBinaryName = %q, want %q", CliBinaryName, "paramsel")
	}
}
