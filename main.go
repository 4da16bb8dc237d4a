package main

import (
	"os"
	"os/signal"
	"syscall"

	"dashstream/config"
	"dashstream/monitor"
	"dashstream/utils/log"
)

func main() {
	// 1) 설정 (.env + DASHSTREAM_*)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyLogging()

	// 2) Monitor 생성
	m, err := monitor.NewMonitor(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// 3) Start
	m.Start()

	// 4) OS 시그널 또는 서버 에러 대기 (Graceful Stop)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Infof("Shutting down gracefully...")
	case err, ok := <-m.ServerErr():
		if ok {
			log.Errorf("preview server stopped: %v", err)
		}
	}

	// 5) Stop
	m.Stop()
	log.Infof("Shutdown complete.")
}
