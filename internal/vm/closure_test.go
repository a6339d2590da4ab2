package vm

import "testing"

func TestClosureTraceMarksFunctionAndUpvalues(t *testing.T) {
	v := NewVM(Config{})
	module := NewModule(v, nil)
	fn := NewFunction(v, module, "<test>")
	fn.NumUpvalues = 1
	closure := NewClosure(v, fn)
	if len(closure.Upvalues) != 1 {
		t.Fatalf("NewClosure must allocate NumUpvalues slots, got %d", len(closure.Upvalues))
	}

	captured := NewUpvalue(v, new(Value), 0)
	*captured.location = ObjVal(NewString(v, "payload"))
	closure.Upvalues[0] = captured

	v.pushRoot(ObjVal(closure))
	v.CollectGarbage()

	stillLive := func(o object) bool {
		for cur := v.firstObject; cur != nil; cur = cur.next {
			if cur == o.Header() {
				return true
			}
		}
		return false
	}
	if !stillLive(fn) {
		t.Fatal("a rooted closure must keep its underlying function alive")
	}
	if !stillLive(captured) {
		t.Fatal("a rooted closure must keep its captured upvalues alive")
	}
	v.popRoot()
}

func TestInstanceTraceMarksFields(t *testing.T) {
	v := NewVM(Config{})
	class := NewClass(v, v.ObjectClass(), 1, NewString(v, "Box"))
	v.pushRoot(ObjVal(class))
	inst := NewInstance(v, class)
	held := NewString(v, "boxed")
	inst.Fields[0] = ObjVal(held)

	v.pushRoot(ObjVal(inst))
	v.CollectGarbage()

	found := false
	for cur := v.firstObject; cur != nil; cur = cur.next {
		if cur == held.Header() {
			found = true
		}
	}
	if !found {
		t.Fatal("a rooted instance must keep its field values alive")
	}
	v.popRoot()
	v.popRoot()
}
