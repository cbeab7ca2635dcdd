// Package worker 提供固定數量 goroutine 的背景工作池，用於建立桌號後預熱 QR 圖片快取
package worker

import (
	"sync"

	"github.com/rs/zerolog"
)

// Task 是交給工作池執行的一個工作
type Task func()

type Pool interface {
	// Submit 佇列滿時會阻塞；Stop 之後送出的工作直接丟棄
	Submit(Task)
	// TrySubmit 不阻塞，佇列已滿或已停止時回傳 false
	TrySubmit(Task) bool
	Stop()
}

const queuePerWorker = 16

// NewPool 建立 n 個 worker，n<=0 時為 1。工作 panic 會被記錄而不會讓 worker 結束
func NewPool(n int, log zerolog.Logger) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan Task, n*queuePerWorker), log: log}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}
	return p
}

type pool struct {
	jobs    chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	log     zerolog.Logger
}

func (p *pool) run(job Task) {
	if job == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("worker task panicked")
		}
	}()
	job()
}

func (p *pool) Submit(t Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return
	}
	p.jobs <- t
}

func (p *pool) TrySubmit(t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- t:
		return true
	default:
		return false
	}
}

// Stop 等待佇列內的工作全部完成，可重複呼叫
func (p *pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
