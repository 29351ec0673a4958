package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(ctx storage.Context, key any, value any) {
	data := std.Serialize(value)
	storage.Put(ctx, key, data)
}

// GetInt returns integer stored by the key or zero if there is no such key.
func GetInt(ctx storage.Context, key any) int {
	val := storage.Get(ctx, key)
	if val != nil {
		return val.(int)
	}

	return 0
}

// PutInt stores integer value by the key. Zero value removes the key, so
// GetInt still returns zero for it.
func PutInt(ctx storage.Context, key any, val int) {
	if val == 0 {
		storage.Delete(ctx, key)
		return
	}

	storage.Put(ctx, key, val)
}
