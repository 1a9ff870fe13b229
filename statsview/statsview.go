// Package statsview serves live Go runtime charts (heap, GC, goroutines)
// for profiling the emulator while it runs.
package statsview

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/golang/glog"
)

const path = "/debug/statsview"

// Launch starts the viewer on addr in a new goroutine.
func Launch(addr string) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil {
			glog.Errorf("statsview: %v", err)
		}
	}()
	glog.Infof("stats server available at http://%s%s", addr, path)
}
