package block

import "testing"

func TestSuccessors(t *testing.T) {
	tests := []struct {
		name string
		exit Exit
		want []int
	}{
		{"terminal", Terminal{}, nil},
		{"jump", Jump{Target: 3}, []int{3}},
		{"cond", CondJump{True: 1, False: 2}, []int{1, 2}},
		{"cond-same", CondJump{True: 4, False: 4}, []int{4}},
		{"return", Return{Value: true}, nil},
		{"raise", Raise{}, nil},
		{"try", Try{Body: 1, Handler: 5}, []int{1, 5}},
		{"with", With{Body: 2, Cleanup: 3}, []int{2, 3}},
	}
	for _, tc := range tests {
		b := New(0, tc.exit)
		got := b.Successors()
		if len(got) != len(tc.want) {
			t.Errorf("%s: successors mismatch, want: %v got: %v", tc.name, tc.want, got)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: successors mismatch, want: %v got: %v", tc.name, tc.want, got)
			}
		}
		if b.IsTerminal() != (len(tc.want) == 0) {
			t.Errorf("%s: IsTerminal = %t", tc.name, b.IsTerminal())
		}
	}
}

func TestRetarget(t *testing.T) {
	e := CondJump{True: Placeholder, False: 2}.Retarget(Placeholder, 7)
	cj := e.(CondJump)
	if cj.True != 7 || cj.False != 2 {
		t.Errorf("retarget failed: %+v", cj)
	}
	w := With{Body: 1, Cleanup: 1}.Retarget(1, 9).(With)
	if w.Body != 9 || w.Cleanup != 9 {
		t.Errorf("retarget failed: %+v", w)
	}
}

func TestDispatch(t *testing.T) {
	d := New(1, CondJump{True: 2, False: 3}, "dup", Filter("ValueError"))
	if !d.IsDispatch() {
		t.Fatalf("block with filter should be a dispatch test")
	}
	f, _ := d.Filter()
	if f.Exception() != "ValueError" {
		t.Errorf("filter: want ValueError got %s", f.Exception())
	}
	if New(2, Jump{Target: 3}, Filter("KeyError")).IsDispatch() {
		t.Errorf("jump block cannot be a dispatch test")
	}
}

func TestKindString(t *testing.T) {
	if s := KindCondJump.String(); s != "condjump" {
		t.Errorf("want condjump got %s", s)
	}
	if s := Kind(42).String(); s != "kind(42)" {
		t.Errorf("want kind(42) got %s", s)
	}
}
