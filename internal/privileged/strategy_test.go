package privileged

import "testing"

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name string
		in   SelectionInput
		want Strategy
	}{
		{
			name: "helper available wins",
			in: SelectionInput{
				HelperConfigured: true, HelperAvailable: true,
				PkexecAvailable: true, DesktopPromptAvailable: true,
			},
			want: StrategyPkexecHelper,
		},
		{
			name: "pkexec with desktop prompt",
			in:   SelectionInput{PkexecAvailable: true, DesktopPromptAvailable: true},
			want: StrategyPkexec,
		},
		{
			name: "pkexec blocked by missing apt-get for package op",
			in: SelectionInput{
				PkexecAvailable: true, DesktopPromptAvailable: true,
				RequiresPackageOp: true, AptGetAvailable: false,
				SudoNonInteractiveAvailable: true,
			},
			want: StrategyFailure,
		},
		{
			name: "pkexec allowed for package op with apt-get present",
			in: SelectionInput{
				PkexecAvailable: true, DesktopPromptAvailable: true,
				RequiresPackageOp: true, AptGetAvailable: true,
			},
			want: StrategyPkexec,
		},
		{
			name: "sudo noninteractive fallback",
			in:   SelectionInput{SudoNonInteractiveAvailable: true},
			want: StrategySudoNonInteractive,
		},
		{
			name: "no desktop prompt falls to sudo",
			in: SelectionInput{
				PkexecAvailable: true, DesktopPromptAvailable: false,
				SudoNonInteractiveAvailable: true,
			},
			want: StrategySudoNonInteractive,
		},
		{
			name: "nothing available",
			in:   SelectionInput{},
			want: StrategyFailure,
		},
		{
			name: "helper configured but not available falls through to pkexec",
			in: SelectionInput{
				HelperConfigured: true, HelperAvailable: false,
				PkexecAvailable: true, DesktopPromptAvailable: true,
			},
			want: StrategyPkexec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectStrategy(tt.in); got != tt.want {
				t.Errorf("SelectStrategy() = %v, want %v", got, tt.want)
			}
		})
	}
}
