// Package cluster assigns an opaque cluster id to markets whose
// label/text blob are judged semantically similar, so that whale
// activity against differently-worded but equivalent markets can be
// attributed to a single group.
package cluster
