package vm

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

const moduleCacheSchema uint16 = 1

// cachedValue is a msgpack-friendly projection of a constant-table
// Value: only the kinds a compiled function's Constants slice can
// actually hold — Null/Bool/Num/String, plus nested Function constants
// for closures — are representable. Anything else (a receiver that
// embeds some other object kind as a constant) makes the whole entry
// uncacheable; see freezeValue.
type cachedValue struct {
	Kind uint8
	Bool bool
	Num  float64
	Str  string
	Fn   *cachedFunction
}

const (
	cachedNull uint8 = iota
	cachedBool
	cachedNum
	cachedStr
	cachedFn
)

// cachedFunction mirrors ObjFunction's own fields minus Module (the
// cache is reattached to whatever ObjModule the current run is using,
// not the one that existed when it was written).
type cachedFunction struct {
	Code        []byte
	Lines       []int
	Constants   []cachedValue
	Arity       int
	NumUpvalues int
	DebugName   string
	MaxSlots    int
}

type cacheEntry struct {
	Schema uint16
	Fn     *cachedFunction
}

// ModuleCache is a disk-backed cache of compiled ObjFunctions keyed by
// a SHA-256 of their source text, exercised by `ember run --cache`.
// Grounded on the teacher's internal/driver.DiskCache: same
// XDG_CACHE_HOME-relative directory layout and atomic
// write-to-temp-then-rename scheme, msgpack in place of the teacher's
// own msgpack use for its module-metadata payload.
type ModuleCache struct {
	dir string
}

// OpenModuleCache opens (creating if needed) the cache directory under
// the user's cache home.
func OpenModuleCache(app string) (*ModuleCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "modules")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ModuleCache{dir: dir}, nil
}

// SourceHash is the cache key: ember re-derives it from source text on
// every run rather than trusting a stored mtime, so any edit misses.
func SourceHash(source string) [32]byte { return sha256.Sum256([]byte(source)) }

func (c *ModuleCache) pathFor(hash [32]byte) string {
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".mp")
}

// Put serializes fn's bytecode graph to disk under hash. A nil error
// with nothing written means fn contains a constant the cache format
// can't represent — caching is a pure optimization, never a
// correctness requirement, so that is not treated as a failure.
func (c *ModuleCache) Put(hash [32]byte, fn *ObjFunction) error {
	cf, ok := freezeFunction(fn)
	if !ok {
		return nil
	}
	data, err := msgpack.Marshal(cacheEntry{Schema: moduleCacheSchema, Fn: cf})
	if err != nil {
		return err
	}
	path := c.pathFor(hash)
	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get deserializes a previously-cached function and reattaches it to
// module, allocating every nested object through v so the allocator
// and GC account for it exactly as if internal/compiler had just
// produced it fresh.
func (c *ModuleCache) Get(v *VM, module *ObjModule, hash [32]byte) (*ObjFunction, bool, error) {
	data, err := os.ReadFile(c.pathFor(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry cacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, false, err
	}
	if entry.Schema != moduleCacheSchema || entry.Fn == nil {
		return nil, false, nil
	}
	return thawFunction(v, module, entry.Fn), true, nil
}

func freezeFunction(fn *ObjFunction) (*cachedFunction, bool) {
	cf := &cachedFunction{
		Code:        fn.Code,
		Lines:       fn.Lines,
		Arity:       fn.Arity,
		NumUpvalues: fn.NumUpvalues,
		DebugName:   fn.DebugName,
		MaxSlots:    fn.MaxSlots,
	}
	for _, c := range fn.Constants {
		cv, ok := freezeValue(c)
		if !ok {
			return nil, false
		}
		cf.Constants = append(cf.Constants, cv)
	}
	return cf, true
}

func freezeValue(v Value) (cachedValue, bool) {
	switch {
	case v.IsNull():
		return cachedValue{Kind: cachedNull}, true
	case v.IsBool():
		return cachedValue{Kind: cachedBool, Bool: v.AsBool()}, true
	case v.IsNumber():
		return cachedValue{Kind: cachedNum, Num: v.AsNumber()}, true
	case v.IsObj():
		switch o := v.AsObj().(type) {
		case *ObjString:
			return cachedValue{Kind: cachedStr, Str: o.Value()}, true
		case *ObjFunction:
			cf, ok := freezeFunction(o)
			if !ok {
				return cachedValue{}, false
			}
			return cachedValue{Kind: cachedFn, Fn: cf}, true
		}
	}
	return cachedValue{}, false
}

func thawFunction(v *VM, module *ObjModule, cf *cachedFunction) *ObjFunction {
	fn := NewFunction(v, module, cf.DebugName)
	fn.Code = cf.Code
	fn.Lines = cf.Lines
	fn.Arity = cf.Arity
	fn.NumUpvalues = cf.NumUpvalues
	fn.MaxSlots = cf.MaxSlots
	fn.Constants = make([]Value, len(cf.Constants))
	for i, cv := range cf.Constants {
		fn.Constants[i] = thawValue(v, module, cv)
	}
	return fn
}

func thawValue(v *VM, module *ObjModule, cv cachedValue) Value {
	switch cv.Kind {
	case cachedBool:
		return BoolVal(cv.Bool)
	case cachedNum:
		return NumberVal(cv.Num)
	case cachedStr:
		return ObjVal(NewString(v, cv.Str))
	case cachedFn:
		return ObjVal(thawFunction(v, module, cv.Fn))
	default:
		return NullVal()
	}
}
