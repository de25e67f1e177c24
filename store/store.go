// Package store 提供持久化后端的实现，接口定义在 core 包。
//
//   - 键值存储（core.Store）：MemoryStore、RedisStore、FileStore
//   - 向量快照（core.SnapshotStore）：SnapshotRepository + 二进制编解码
//   - 目录查询（core.Catalog）：MemoryCatalog、SQLiteCatalog
//
// 示例：
//
//	var kv core.Store = store.NewFileStore("/var/lib/lastcall")
//	repo := store.NewSnapshotRepository(kv, "lastcall:index")
package store
