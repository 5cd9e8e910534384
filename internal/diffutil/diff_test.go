package diffutil

import (
	"strings"
	"testing"
)

func TestUnified(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		oldContent  string
		newContent  string
		wantContain []string
	}{
		{
			name:       "scope mode change",
			doc:        "policy.json",
			oldContent: "{\n  \"runtime.install\": \"ask\"\n}\n",
			newContent: "{\n  \"runtime.install\": \"allow\"\n}\n",
			wantContain: []string{
				"policy.json",
				`-  "runtime.install": "ask"`,
				`+  "runtime.install": "allow"`,
			},
		},
		{
			name:       "no change",
			doc:        "state.json",
			oldContent: "same content\n",
			newContent: "same content\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unified(tt.doc, tt.oldContent, tt.newContent)
			if err != nil {
				t.Fatalf("Unified() error = %v", err)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("Unified() output should contain %q, got:\n%s", want, got)
				}
			}
		})
	}
}

func TestCountChanges(t *testing.T) {
	tests := []struct {
		name          string
		diff          string
		wantAdditions int
		wantDeletions int
	}{
		{
			name: "simple diff",
			diff: `--- a/file.txt
+++ b/file.txt
@@ -1,3 +1,3 @@
 line 1
-line 2
+line 2 modified
 line 3`,
			wantAdditions: 1,
			wantDeletions: 1,
		},
		{
			name: "multiple additions",
			diff: `--- a/file.txt
+++ b/file.txt
@@ -1,2 +1,5 @@
 line 1
 line 2
+line 3
+line 4
+line 5`,
			wantAdditions: 3,
			wantDeletions: 0,
		},
		{
			name:          "no changes",
			diff:          "--- a/file.txt\n+++ b/file.txt\n",
			wantAdditions: 0,
			wantDeletions: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAdditions, gotDeletions := CountChanges(tt.diff)
			if gotAdditions != tt.wantAdditions {
				t.Errorf("CountChanges() additions = %v, want %v", gotAdditions, tt.wantAdditions)
			}
			if gotDeletions != tt.wantDeletions {
				t.Errorf("CountChanges() deletions = %v, want %v", gotDeletions, tt.wantDeletions)
			}
		})
	}
}
