package service

import (
	"context"
	"fmt"

	"postfeed/internal/models"
	"postfeed/internal/notify"

	"go.uber.org/zap"
)

type stage int

// Stages run in this order. Checks never write; commits write to a store;
// notify publishes the event and needs at least one commit before it;
// follow-ups are writes that happen after subscribers were told.
const (
	stageCheck stage = iota
	stageCommit
	stageNotify
	stageFollowUp
)

func (s stage) String() string {
	switch s {
	case stageCheck:
		return "check"
	case stageCommit:
		return "commit"
	case stageNotify:
		return "notify"
	default:
		return "follow-up"
	}
}

// mutation is the state shared by the steps of one pipeline run.
type mutation struct {
	actorID string
	postID  string
	input   PostInput
	post    *models.Post
	author  *models.User

	// staleImage is the image URL a committed write stopped referencing.
	staleImage string
}

type step struct {
	name  string
	stage stage
	run   func(ctx context.Context, m *mutation) error
	event func(m *mutation) models.MutationEvent
}

func check(name string, run func(context.Context, *mutation) error) step {
	return step{name: name, stage: stageCheck, run: run}
}

func commit(name string, run func(context.Context, *mutation) error) step {
	return step{name: name, stage: stageCommit, run: run}
}

func followUp(name string, run func(context.Context, *mutation) error) step {
	return step{name: name, stage: stageFollowUp, run: run}
}

// pipeline runs an operation's steps strictly in order and publishes the
// mutation event exactly once, at the notify stage.
type pipeline struct {
	op        string
	steps     []step
	publisher notify.Publisher
	logger    *zap.Logger
}

func newPipeline(op string, publisher notify.Publisher, logger *zap.Logger, steps ...step) *pipeline {
	last := stageCheck
	notifies := 0
	for _, s := range steps {
		if s.stage < last {
			panic(fmt.Sprintf("pipeline %s: step %s (%s) after %s stage", op, s.name, s.stage, last))
		}
		if s.stage == stageNotify {
			if last != stageCommit {
				panic(fmt.Sprintf("pipeline %s: notify step without a preceding commit", op))
			}
			if s.event == nil {
				panic(fmt.Sprintf("pipeline %s: notify step without an event builder", op))
			}
			notifies++
		}
		last = s.stage
	}
	if notifies != 1 {
		panic(fmt.Sprintf("pipeline %s: want exactly one notify step, got %d", op, notifies))
	}

	return &pipeline{op: op, steps: steps, publisher: publisher, logger: logger}
}

// announce is the notify stage: build turns the committed state into the
// event that is published. Publishing is best effort; a failure is logged and
// never turns a stored mutation into an error.
func announce(build func(m *mutation) models.MutationEvent) step {
	return step{name: "publish", stage: stageNotify, event: build}
}

func (p *pipeline) publish(ctx context.Context, m *mutation, s step) {
	event := s.event(m)
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Sugar().Errorf("failed to publish %s event for post(%s): %s", event.Action, m.postID, err.Error())
	}
}

// run executes the steps. A failure after a commit leaves earlier writes in
// place; it is logged as a consistency gap so it can be told apart from
// ordinary rejections.
func (p *pipeline) run(ctx context.Context, m *mutation) error {
	var done []string
	committed := false

	for _, s := range p.steps {
		if s.stage == stageNotify {
			p.publish(ctx, m, s)
			done = append(done, s.name)
			continue
		}

		if err := s.run(ctx, m); err != nil {
			if committed {
				p.logger.Error("consistency gap",
					zap.String("op", p.op),
					zap.String("failed_step", s.name),
					zap.Strings("completed_steps", done),
					zap.String("actor_id", m.actorID),
					zap.String("post_id", m.postID),
					zap.Error(err),
				)
			}
			return err
		}

		done = append(done, s.name)
		if s.stage >= stageCommit {
			committed = true
		}
	}

	return nil
}
