package job

import (
	"context"
	"testing"
	"time"
)

func TestAcquireLease(t *testing.T) {
	db := openDatabase(t, false, false)
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		name  string
		owner string
		at    time.Time
		want  bool
	}{
		{"free lease", "a", now, true},
		{"held by another owner", "b", now.Add(time.Minute), false},
		{"renewed by holder", "a", now.Add(2 * time.Minute), true},
		{"expired lease is taken over", "b", now.Add(2 * time.Hour), true},
		{"previous holder locked out", "a", now.Add(2*time.Hour + time.Minute), false},
	}

	for _, step := range steps {
		got, err := acquireLease(ctx, db, "import", step.owner, time.Hour, step.at)
		if err != nil {
			t.Fatalf("%s: acquireLease() error = %v", step.name, err)
		}
		if got != step.want {
			t.Fatalf("%s: acquireLease() = %t, want %t", step.name, got, step.want)
		}
	}

	if err := releaseLease(ctx, db, "import", "a"); err != nil {
		t.Fatalf("releaseLease() error = %v", err)
	}
	if got, _ := acquireLease(ctx, db, "import", "a", time.Hour, now.Add(2*time.Hour+2*time.Minute)); got {
		t.Fatal("release by a non-holder must not free the lease")
	}

	if err := releaseLease(ctx, db, "import", "b"); err != nil {
		t.Fatalf("releaseLease() error = %v", err)
	}
	if got, err := acquireLease(ctx, db, "import", "a", time.Hour, now.Add(2*time.Hour+3*time.Minute)); err != nil || !got {
		t.Fatalf("expected lease to be free after release, got %t, %v", got, err)
	}
}
