package module

import "github.com/sonwh98/yin/internal/yin/value"

// Effect tags recognised by the core VMs. Any other tag returned from
// a primitive is fatal.
const (
	EffectStorePut    = "vm/store-put"
	EffectStreamMake  = "stream/make"
	EffectStreamPut   = "stream/put"
	EffectStreamCursor = "stream/cursor"
	EffectStreamNext  = "stream/next"
	EffectStreamClose = "stream/close"
)

func effect(tag string, args ...value.Value) value.Value {
	return value.EffectOf(&value.Effect{Tag: tag, Args: args})
}

func StorePutEffect(key string, v value.Value) value.Value {
	return effect(EffectStorePut, value.String(key), v)
}

func StreamMakeEffect(buffer value.Value) value.Value {
	return effect(EffectStreamMake, buffer)
}

func StreamPutEffect(target, v value.Value) value.Value {
	return effect(EffectStreamPut, target, v)
}

func StreamCursorEffect(source value.Value) value.Value {
	return effect(EffectStreamCursor, source)
}

func StreamNextEffect(source value.Value) value.Value {
	return effect(EffectStreamNext, source)
}

func StreamCloseEffect(source value.Value) value.Value {
	return effect(EffectStreamClose, source)
}

// KnownEffectTag reports whether tag is one of the core effect tags.
func KnownEffectTag(tag string) bool {
	switch tag {
	case EffectStorePut, EffectStreamMake, EffectStreamPut, EffectStreamCursor, EffectStreamNext, EffectStreamClose:
		return true
	default:
		return false
	}
}
