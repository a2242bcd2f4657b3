//go:build !unix

package tokenstore

// lockFile 非 unix 平台只依赖 rename 的原子性
func lockFile(string) (func(), error) {
	return func() {}, nil
}
