package sub

import "testing"

func BenchmarkNotATestFile(b *testing.B) {}
