package game

import "time"

// Scheduler 创建房间使用的一次性定时器，测试中替换为手动触发的实现
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func NewRealScheduler() Scheduler {
	return realScheduler{}
}
