package tags

import "github.com/jward/tags/internal/store"

// Public aliases for the store types returned by Engine.

type Store = store.Store
type TagQuery = store.TagQuery
type TagHit = store.TagHit
