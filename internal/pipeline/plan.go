package pipeline

import (
	"context"
	"errors"
	"fmt"

	"osmworld/internal/procpool"
	"osmworld/internal/services"
	"osmworld/internal/tilegrid"
)

// StagePlan lists the jobs one stage would launch given the current disk
// state.
type StagePlan struct {
	Stage    Stage
	Disabled bool
	Jobs     []procpool.Job
	Notes    []string
}

// Plan is a dry run of the whole pipeline.
type Plan struct {
	Stages []StagePlan
}

// JobCount returns the number of jobs across every stage.
func (p Plan) JobCount() int {
	n := 0
	for _, sp := range p.Stages {
		n += len(sp.Jobs)
	}
	return n
}

// Plan reports the pending work of every stage without launching anything.
// Work that depends on the output of an earlier pending stage is reported as
// a note rather than a job.
func (s *Sequencer) Plan(ctx context.Context) (Plan, error) {
	var plan Plan

	extract := StagePlan{Stage: StageExtract, Disabled: !s.cfg.Pipeline.Extract}
	if !extract.Disabled {
		jobs, err := s.extractJobs()
		if err != nil {
			return Plan{}, err
		}
		extract.Jobs = jobs
	}
	plan.Stages = append(plan.Stages, extract)

	partition := StagePlan{Stage: StagePartition}
	convert := StagePlan{Stage: StageConvert}
	next, nextKnown := 1, true
	for _, r := range s.layout.Regions() {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		job, needed, err := s.partitionJob(r, next)
		if err != nil {
			return Plan{}, err
		}
		if needed {
			if !nextKnown {
				partition.Notes = append(partition.Notes,
					fmt.Sprintf("%s: map id follows the preceding region's tiles", r.Name))
			}
			partition.Jobs = append(partition.Jobs, job)
		}

		tiles, err := readIndex(StageConvert, r)
		if errors.Is(err, services.ErrIndexUnreadable) {
			nextKnown = false
			convert.Notes = append(convert.Notes,
				fmt.Sprintf("%s: tiles are known once the region is partitioned", r.Name))
			continue
		}
		if err != nil {
			return Plan{}, err
		}
		if len(tiles) > 0 {
			next = tilegrid.NextID(tiles)
		}
		jobs, _, err := s.convertJobs(r, tiles)
		if err != nil {
			return Plan{}, err
		}
		convert.Jobs = append(convert.Jobs, jobs...)
	}
	plan.Stages = append(plan.Stages, partition, convert)

	mergePlan := StagePlan{Stage: StageMerge, Disabled: s.merger == nil}
	if s.merger != nil {
		planned, err := s.merger.Plan(s.layout.RegionDirs())
		if err != nil {
			return Plan{}, err
		}
		for _, p := range planned {
			mergePlan.Jobs = append(mergePlan.Jobs, p.Job)
		}
		if len(convert.Jobs) > 0 || len(convert.Notes) > 0 {
			mergePlan.Notes = append(mergePlan.Notes, "inputs change once pending conversions finish")
		}
	}
	plan.Stages = append(plan.Stages, mergePlan)
	return plan, nil
}
