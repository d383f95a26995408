package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Redis allows much longer keys, but very long keys waste memory and
// make SCAN patterns slow; anything over this bound is hashed instead.
const maxKeyLength = 200

// Keyer renders an entity as a stable cache-key fragment, e.g. "Post_42".
type Keyer interface {
	CacheRef() string
}

// BuildKey derives a deterministic cache key from a logical prefix,
// positional arguments, and keyword arguments. Keyword arguments are
// sorted by name so that call-site ordering never changes the key.
func BuildKey(prefix string, args []interface{}, kwargs map[string]interface{}) string {
	parts := make([]string, 0, 1+len(args)+len(kwargs))
	parts = append(parts, prefix)

	for _, arg := range args {
		parts = append(parts, renderArg(arg))
	}

	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s_%s", name, renderArg(kwargs[name])))
	}

	key := strings.Join(parts, ":")
	if len(key) > maxKeyLength {
		sum := md5.Sum([]byte(key))
		key = fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
	}
	return key
}

func renderArg(arg interface{}) string {
	if k, ok := arg.(Keyer); ok {
		return k.CacheRef()
	}
	return fmt.Sprintf("%v", arg)
}
