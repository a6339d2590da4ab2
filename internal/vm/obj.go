package vm

// Kind discriminates the heap object types the core allocates. Every
// concrete Obj* type embeds Obj as its first field and is reachable
// through the object interface below.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindMap
	KindRange
	KindFunction
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindFiber
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRange:
		return "range"
	case KindFunction:
		return "function"
	case KindClosure:
		return "closure"
	case KindUpvalue:
		return "upvalue"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindFiber:
		return "fiber"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Obj is the common prefix every heap object carries: its type tag, the
// GC mark bit, a pointer to its class (nil for module and upvalue,
// which are never first-class script values), and the intrusive link
// threading it into the VM's "all objects" list.
type Obj struct {
	kind   Kind
	marked bool
	class  *ObjClass
	next   *Obj
}

// Header returns the object's own header; concrete types promote this
// method through embedding, which is what makes them satisfy object.
func (o *Obj) Header() *Obj { return o }

func (o *Obj) Kind() Kind { return o.kind }

// Class returns the object's class, or nil for objects that are never
// first-class script values (module, upvalue).
func (o *Obj) Class() *ObjClass { return o.class }

// setClass rewires the object's class-of pointer; used only during
// core bootstrap, where Class and Object and their metaclasses are
// mutually referential and cannot all be wired at allocation time.
func (o *Obj) setClass(c *ObjClass) { o.class = c }

// object is the interface every heap entity satisfies. trace is called
// during the GC mark phase to push every outgoing reference onto the
// gray stack; objects with no outgoing pointers (String, Range) have a
// no-op trace.
type object interface {
	Header() *Obj
	trace(gc *gcState)
}

// initObj fills in the header fields shared by every allocation; call
// it from each New* constructor before returning the object.
func initObj(o *Obj, kind Kind, class *ObjClass) {
	o.kind = kind
	o.class = class
	o.marked = false
}
