// Package quickdb is an embedded key-value store with table scoping and
// dotted-path access into stored values.
//
// A [DB] is bound to one table of a [Driver]. Keys without a dot address a
// whole row; a key like "user.profile.age" addresses the member
// profile.age inside the value of row "user":
//
//	drv, _ := jsonfile.Open(ctx, jsonfile.Options{Path: "db.json"})
//	defer drv.Close()
//
//	db, _ := quickdb.New(ctx, drv)
//	db.Set(ctx, "user.profile.age", 36) // row "user" is {"profile":{"age":36}}
//	age, _, _ := db.Get(ctx, "user.profile.age")
//
//	users, _ := db.Table(ctx, "users") // same driver, other table
//
// # Dotted writes coerce
//
// Writing below a row whose value is not an object replaces the value with
// an empty object first. If "a" holds 3, Set("a.b", 5) leaves {"b":5} and the
// 3 is gone. Use [WithStrictPaths] to get [ErrType] instead.
//
// # Durability
//
// Whether a returned mutation is on disk depends on the driver. The jsonfile
// driver returns only after the full snapshot containing the mutation has been
// atomically written. If that write fails the error is returned, but the
// in-memory state already includes the mutation.
//
// # Concurrency
//
// A DB is safe for concurrent use. Single driver calls are atomic, but
// read-modify-write operations (dotted Set and Delete, Add, Sub, Push, Pull)
// are a Get followed by a Set: two goroutines updating the same row
// concurrently can lose one update. Sequence same-row writers yourself.
package quickdb
