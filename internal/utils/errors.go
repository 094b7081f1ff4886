package utils

func IgnoreError(f func() error) {
	_ = f()
}
