package racer

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// Standing 名次信息
type Standing struct {
	ID           int32
	LapsFraction float64
	Finished     bool
	FinishTime   float64 // 完赛时刻（秒），未完赛为0
}

func (s Standing) String() string {
	if s.Finished {
		return fmt.Sprintf("%d(finished %.2fs)", s.ID, s.FinishTime)
	}
	return fmt.Sprintf("%d(%.2f laps)", s.ID, s.LapsFraction)
}

// RacerManager AI车手管理
// 功能：为配置了AI的车辆创建控制器，驱动其进度更新与决策，记录完赛时间
type RacerManager struct {
	ctx          entity.ITaskContext
	difficulties *DifficultyProvider

	data        map[int32]*RacerController
	racers      []*RacerController // 按ID升序
	finishTimes map[int32]float64
}

func NewManager(ctx entity.ITaskContext) *RacerManager {
	return &RacerManager{
		ctx:          ctx,
		difficulties: NewDifficultyProvider(ctx.RuntimeConfig().All.Difficulty),
		data:         make(map[int32]*RacerController),
		finishTimes:  make(map[int32]float64),
	}
}

// Init 为配置了AI的车辆创建控制器并附身
func (m *RacerManager) Init(cs []config.Vehicle) {
	for _, c := range lo.Filter(cs, func(c config.Vehicle, _ int) bool { return c.AI != nil }) {
		difficulty, err := ParseDifficulty(c.AI.Difficulty)
		if err != nil {
			log.Panicf("vehicle %d: %v", c.ID, err)
		}
		m.Add(c.ID, difficulty)
	}
	// 每个车手以ID顺序的下一位作为超车提示的参照
	if len(m.racers) > 1 {
		for i, r := range m.racers {
			r.Barks.SetRival(m.racers[(i+1)%len(m.racers)])
		}
	}
	log.Infof("Racer: %v", len(m.racers))
}

// Add 创建控制器并控制车辆
func (m *RacerManager) Add(vehicleID int32, difficulty Difficulty) *RacerController {
	if _, ok := m.data[vehicleID]; ok {
		log.Panicf("racer ID %v already exists", vehicleID)
	}
	c := NewRacerController(vehicleID, m.ctx, m.difficulties)
	c.Follower.OnRaceCompleted.Add(func(e RaceCompleted) {
		m.onRaceCompleted(c)
	})
	if err := c.Possess(m.ctx.VehicleManager().Get(vehicleID), difficulty); err != nil {
		log.Warnf("racer %d not racing: %v", vehicleID, err)
	}
	m.data[vehicleID] = c
	m.racers = append(m.racers, c)
	sort.Slice(m.racers, func(i, j int) bool { return m.racers[i].id < m.racers[j].id })
	return c
}

func (m *RacerManager) onRaceCompleted(c *RacerController) {
	if _, ok := m.finishTimes[c.id]; ok {
		return
	}
	m.finishTimes[c.id] = m.ctx.Clock().T
	log.Infof("racer %d finished at %v", c.id, m.ctx.Clock())
	c.StopRacing()
}

// Get 根据ID获取车手，不存在则panic
func (m *RacerManager) Get(id int32) *RacerController {
	if c, ok := m.data[id]; !ok {
		log.Panicf("no id %d in racer data", id)
		return nil
	} else {
		return c
	}
}

// GetOrError 根据ID获取车手，不存在则返回错误
func (m *RacerManager) GetOrError(id int32) (*RacerController, error) {
	if c, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in racer data", id)
	} else {
		return c, nil
	}
}

func (m *RacerManager) Racers() []*RacerController {
	return m.racers
}

// Prepare 准备阶段：更新比赛进度
func (m *RacerManager) Prepare() {
	for _, c := range m.racers {
		c.UpdateRaceState()
	}
}

// Update 更新阶段：驱动决策组件
func (m *RacerManager) Update(dt float64) {
	for _, c := range m.racers {
		c.Update(dt)
	}
}

// AllFinished 参赛的车手都已不在比赛中
// 说明：未能附身的车手不参与判断；没有参赛车手时为false
func (m *RacerManager) AllFinished() bool {
	entrants := lo.Filter(m.racers, func(c *RacerController, _ int) bool { return c.state != Unpossessed })
	if len(entrants) == 0 {
		return false
	}
	return !lo.ContainsBy(entrants, func(c *RacerController) bool { return c.state == Racing })
}

// Standings 当前名次：已完赛的按完赛时间，其余按总进度
func (m *RacerManager) Standings() []Standing {
	standings := lo.Map(m.racers, func(c *RacerController, _ int) Standing {
		t, finished := m.finishTimes[c.id]
		return Standing{
			ID:           c.id,
			LapsFraction: c.context.RaceState.LapsFraction(),
			Finished:     finished,
			FinishTime:   t,
		}
	})
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if a.Finished {
			return a.FinishTime < b.FinishTime
		}
		return a.LapsFraction > b.LapsFraction
	})
	return standings
}
