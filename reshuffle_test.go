package hazardmap

import "testing"

func TestRandomPolicyNeverRepeats(t *testing.T) {
	p := NewRandomPolicy(42)
	for n := 2; n <= 7; n++ {
		cur := 0
		for i := 0; i < 500; i++ {
			next := p.Next(n, cur)
			if next == cur {
				t.Fatalf("n=%d: Next returned excluded index %d", n, cur)
			}
			if next < 0 || next >= n {
				t.Fatalf("n=%d: Next = %d out of range", n, next)
			}
			cur = next
		}
	}
}

func TestRandomPolicyCoversRange(t *testing.T) {
	p := NewRandomPolicy(7)
	seen := make([]bool, 5)
	for i := 0; i < 500; i++ {
		seen[p.Next(5, 2)] = true
	}
	for i, ok := range seen {
		if i == 2 && ok {
			t.Error("excluded index was picked")
		}
		if i != 2 && !ok {
			t.Errorf("index %d never picked", i)
		}
	}
}

func TestRandomPolicyEdgeCases(t *testing.T) {
	p := NewRandomPolicy(1)
	if got := p.Next(0, -1); got != -1 {
		t.Errorf("Next(0) = %d, want -1", got)
	}
	if got := p.Next(1, 0); got != 0 {
		t.Errorf("Next(1, 0) = %d, want 0", got)
	}
	if got := p.Next(3, 9); got < 0 || got >= 3 {
		t.Errorf("Next(3, 9) = %d, want in range", got)
	}
}

func TestRandomPolicySeeded(t *testing.T) {
	a, b := NewRandomPolicy(99), NewRandomPolicy(99)
	for i := 0; i < 50; i++ {
		if a.Next(10, -1) != b.Next(10, -1) || a.Angle() != b.Angle() {
			t.Fatal("same seed produced different sequences")
		}
	}
}

func TestRandomPolicyAngleRange(t *testing.T) {
	p := NewRandomPolicy(3)
	for i := 0; i < 200; i++ {
		a := p.Angle()
		if a < 0 || a >= 360 {
			t.Fatalf("Angle = %v out of [0, 360)", a)
		}
	}
}

func TestCyclePolicy(t *testing.T) {
	p := &CyclePolicy{Step: 150}
	if got := p.Next(4, -1); got != 0 {
		t.Errorf("Next(4, -1) = %d, want 0", got)
	}
	if got := p.Next(4, 3); got != 0 {
		t.Errorf("Next(4, 3) = %d, want 0 (wraps)", got)
	}
	if got := p.Next(4, 1); got != 2 {
		t.Errorf("Next(4, 1) = %d, want 2", got)
	}
	want := []float64{150, 300, 90}
	for _, w := range want {
		assertNear(t, "Angle", p.Angle(), w)
	}
}
