package schedule

import (
	"context"
	"fmt"
)

// Policy defines what the Manager does with the configured requests at startup
type Policy string

// Policy values
const (
	// PolicyNone does nothing
	PolicyNone Policy = "none"
	// PolicySchedule schedules the configured requests
	PolicySchedule Policy = "schedule"
	// PolicyScheduleThenCancel schedules the configured requests, lists what's pending in their channels and
	// cancels what was just scheduled. Mostly useful to validate permissions and connectivity
	PolicyScheduleThenCancel Policy = "scheduleThenCancel"
)

// ParsePolicy returns the Policy matching a configuration value. An empty value means PolicyNone
func ParsePolicy(value string) (p Policy, err error) {
	switch Policy(value) {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicySchedule, PolicyScheduleThenCancel:
		return Policy(value), nil
	}

	return "", fmt.Errorf("Invalid startup schedule policy [%s], must be one of [%s, %s, %s]", value, PolicyNone, PolicySchedule, PolicyScheduleThenCancel)
}

// RunStartupPolicy applies a startup policy to requests and returns the outcomes of any cancellation
func (m *Manager) RunStartupPolicy(ctx context.Context, p Policy, requests []Request) (outcomes []Outcome, err error) {
	if p == PolicyNone || len(requests) == 0 {
		m.log.Debugf("Nothing to schedule at startup with policy [%s] and [%d] requests\n", p, len(requests))
		return nil, nil
	}

	handles, err := m.ScheduleAll(ctx, requests)
	if err != nil && p != PolicyScheduleThenCancel {
		return nil, err
	}

	m.log.Printf("Scheduled [%d] of [%d] messages at startup\n", len(handles), len(requests))

	if p != PolicyScheduleThenCancel {
		return nil, nil
	}

	// Group by channel while preserving the order of first appearance
	channels := make([]string, 0)
	byChannel := make(map[string][]Handle)
	for _, h := range handles {
		if _, ok := byChannel[h.Channel]; !ok {
			channels = append(channels, h.Channel)
		}

		byChannel[h.Channel] = append(byChannel[h.Channel], h)
	}

	for _, c := range channels {
		pending, lerr := m.ListScheduled(ctx, c)
		if lerr != nil {
			m.log.Printf("%v\n", lerr)
		} else {
			m.log.Printf("Channel [%s] has [%d] scheduled messages pending: %v\n", c, len(pending), pending)
		}

		outcomes = append(outcomes, m.CancelAll(ctx, byChannel[c], c)...)
	}

	return outcomes, err
}
