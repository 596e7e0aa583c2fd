package scan

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Aman-CERP/typemap/internal/logging"
	"github.com/Aman-CERP/typemap/internal/scanners"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// syntheticCorpus builds roots of generated classes. Each class extends a
// random earlier class of the same root, so hierarchies are deep and
// reproducible for a given seed.
func syntheticCorpus(roots, classesPerRoot int, seed int64) *memDriver {
	rng := rand.New(rand.NewSource(seed))
	d := &memDriver{roots: map[string]map[string]string{}}
	for r := range roots {
		pkg := fmt.Sprintf("gen.r%d", r)
		files := make(map[string]string, classesPerRoot)
		for c := range classesPerRoot {
			super := "java.lang.Object"
			if c > 0 {
				super = fmt.Sprintf("%s.C%d", pkg, rng.Intn(c))
			}
			files[fmt.Sprintf("gen/r%d/C%d.java", r, c)] = javaClass(pkg, fmt.Sprintf("C%d", c), super, "gen.Tag")
		}
		d.roots[fmt.Sprint(r)] = files
	}
	return d
}

func benchmarkRun(b *testing.B, workers int) {
	d := syntheticCorpus(8, 50, 42)
	locators := make([]string, 0, len(d.roots))
	for name := range d.roots {
		locators = append(locators, "mem:"+name)
	}

	for b.Loop() {
		ss := defaultScanners()
		st := store.New(scanners.IndexNames(ss)...)
		_, err := Run(context.Background(), Options{
			Roots:    locators,
			Scanners: ss,
			Registry: vfs.NewRegistry(d),
			Workers:  workers,
			Logger:   logging.Discard(),
		}, st)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_Sequential(b *testing.B) { benchmarkRun(b, 1) }
func BenchmarkRun_Parallel4(b *testing.B)  { benchmarkRun(b, 4) }
