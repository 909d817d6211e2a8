// internal/app/features/tasks/reminders.go
package tasks

import (
	"sort"

	completionstore "github.com/clubops/memberhub/internal/app/store/completions"
	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/app/system/mailer"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TaskDetail is one evaluated (member, task) row as rendered into reminder
// emails.
type TaskDetail struct {
	Member        string
	Task          string
	Status        string
	Expires       string
	LastCompleted string

	taskID   primitive.ObjectID
	memberID primitive.ObjectID
}

// WorkerTasks groups a worker's overdue tasks for the leader email.
type WorkerTasks struct {
	Name  string
	Tasks []TaskDetail
}

// ReminderInput carries everything a reminder run needs, all loaded before
// the run starts. The orchestrator writes no state; running it twice sends
// two identical batches.
type ReminderInput struct {
	Config  *Config
	Cache   *Cache
	Members []models.Member // active members
	Latest  completionstore.LatestSet

	MemberTemplate models.EmailTemplate
	LeaderTemplate models.EmailTemplate

	// ChecklistURL and DetailsURL are the reference links rendered into
	// member and leader emails respectively.
	ChecklistURL string
	DetailsURL   string

	IncludeMembers  bool
	IncludeManagers bool
}

// Summary counts what a reminder run did.
type Summary struct {
	MemberEmails int
	LeaderEmails int
	SendFailures int
}

// Orchestrator builds per-member and per-manager task lists and dispatches
// templated reminder mail. Member emails always go out before manager
// emails.
type Orchestrator struct {
	Sender mailer.Sender
	Log    *zap.Logger
}

func NewOrchestrator(sender mailer.Sender, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{Sender: sender, Log: log}
}

// SendReminders runs both phases. Per-recipient send failures are logged
// and skipped; only setup problems (bad templates) fail the run.
func (o *Orchestrator) SendReminders(in ReminderInput, eval *Evaluator) (Summary, error) {
	var sum Summary

	membersByID := make(map[primitive.ObjectID]models.Member, len(in.Members))
	for _, m := range in.Members {
		membersByID[m.ID] = m
	}

	// Evaluate every (member, task) pair once; both phases read from this.
	memberTasks := make(map[primitive.ObjectID][]TaskDetail)
	for _, m := range in.Members {
		var details []TaskDetail
		for tid := range in.Cache.MemberTasks[m.ID] {
			task := in.Config.Tasks[tid]
			comp := in.Latest.Lookup(task, m.ID)
			res := eval.Evaluate(task, m.ID, comp)

			d := TaskDetail{
				Member:   memberName(m),
				Task:     task.Name,
				Status:   res.Status,
				Expires:  res.Expires,
				taskID:   tid,
				memberID: m.ID,
			}
			if comp != nil {
				d.LastCompleted = dateutil.FormatDate(comp.Completion)
			}
			details = append(details, d)
		}
		sort.Slice(details, func(i, j int) bool {
			ri, rj := StatusRank(details[i].Status), StatusRank(details[j].Status)
			if ri != rj {
				return ri < rj
			}
			return details[i].Task < details[j].Task
		})
		memberTasks[m.ID] = details
	}

	if in.IncludeMembers {
		o.sendMemberEmails(in, memberTasks, &sum)
	}
	if in.IncludeManagers {
		o.sendLeaderEmails(in, membersByID, memberTasks, &sum)
	}
	return sum, nil
}

func hasDue(details []TaskDetail) bool {
	for _, d := range details {
		if d.Status == StatusOverdue || d.Status == StatusExpiresSoon {
			return true
		}
	}
	return false
}

func (o *Orchestrator) sendMemberEmails(in ReminderInput, memberTasks map[primitive.ObjectID][]TaskDetail, sum *Summary) {
	notify := []string{StatusOverdue, StatusExpiresSoon}

	// One email per address; member records sharing an address get one
	// combined task list.
	byEmail := make(map[string][]TaskDetail)
	var order []string
	for _, m := range in.Members {
		details := memberTasks[m.ID]
		if m.Email == "" {
			if hasDue(details) {
				o.Log.Warn("member has due tasks but no email address",
					zap.String("member", memberName(m)))
			}
			continue
		}
		if _, ok := byEmail[m.Email]; !ok {
			order = append(order, m.Email)
		}
		byEmail[m.Email] = append(byEmail[m.Email], details...)
	}

	for _, addr := range order {
		details := byEmail[addr]
		if !hasDue(details) {
			continue
		}

		email, err := mailer.RenderTemplate(in.MemberTemplate, map[string]any{
			"Tasks":    details,
			"Statuses": notify,
			"RefURL":   in.ChecklistURL,
		})
		if err != nil {
			o.Log.Error("render member reminder", zap.Error(err))
			sum.SendFailures++
			continue
		}
		email.To = addr
		if email.From == "" {
			email.From = in.Config.Interest.FromEmail
		}

		if err := o.Sender.Send(email); err != nil {
			o.Log.Error("send member reminder",
				zap.String("to", addr), zap.Error(err))
			sum.SendFailures++
			continue
		}
		sum.MemberEmails++
	}
}

type responsibility struct {
	tasks   idSet
	workers idSet
}

func (o *Orchestrator) sendLeaderEmails(in ReminderInput, membersByID map[primitive.ObjectID]models.Member, memberTasks map[primitive.ObjectID][]TaskDetail, sum *Summary) {
	cfg, cache := in.Config, in.Cache

	// Managers accumulate responsibility across every position they hold
	// that carries email groups.
	perManager := make(map[primitive.ObjectID]*responsibility)
	for _, pos := range cfg.Positions {
		if len(pos.EmailGroupIDs) == 0 {
			continue
		}

		egroups := idSet{}
		ptasks := idSet{}
		for _, gid := range pos.EmailGroupIDs {
			egroups[gid] = struct{}{}
			for tid := range cfg.GroupTasks(gid) {
				ptasks[tid] = struct{}{}
			}
		}

		// Workers are members whose own task groups intersect the email
		// groups.
		pworkers := idSet{}
		for _, m := range in.Members {
			for gid := range cache.MemberTaskGroups[m.ID] {
				if _, ok := egroups[gid]; ok {
					pworkers[m.ID] = struct{}{}
					break
				}
			}
		}

		for _, holderID := range cache.PositionHolders[pos.ID] {
			r, ok := perManager[holderID]
			if !ok {
				r = &responsibility{tasks: idSet{}, workers: idSet{}}
				perManager[holderID] = r
			}
			for tid := range ptasks {
				r.tasks[tid] = struct{}{}
			}
			for mid := range pworkers {
				r.workers[mid] = struct{}{}
			}
		}
	}

	// Stable dispatch order.
	managerIDs := make([]primitive.ObjectID, 0, len(perManager))
	for id := range perManager {
		managerIDs = append(managerIDs, id)
	}
	sort.Slice(managerIDs, func(i, j int) bool { return managerIDs[i].Hex() < managerIDs[j].Hex() })

	for _, managerID := range managerIDs {
		manager, ok := membersByID[managerID]
		if !ok || manager.Email == "" {
			continue
		}
		r := perManager[managerID]

		var workers []WorkerTasks
		workerIDs := make([]primitive.ObjectID, 0, len(r.workers))
		for id := range r.workers {
			workerIDs = append(workerIDs, id)
		}
		sort.Slice(workerIDs, func(i, j int) bool { return workerIDs[i].Hex() < workerIDs[j].Hex() })

		for _, wid := range workerIDs {
			w, ok := membersByID[wid]
			if !ok {
				continue
			}
			var overdue []TaskDetail
			for _, d := range memberTasks[wid] {
				if d.Status != StatusOverdue {
					continue
				}
				if _, ok := r.tasks[d.taskID]; ok {
					overdue = append(overdue, d)
				}
			}
			if len(overdue) > 0 {
				workers = append(workers, WorkerTasks{Name: memberName(w), Tasks: overdue})
			}
		}
		if len(workers) == 0 {
			continue
		}

		email, err := mailer.RenderTemplate(in.LeaderTemplate, map[string]any{
			"Members": workers,
			"RefURL":  in.DetailsURL,
		})
		if err != nil {
			o.Log.Error("render leader reminder", zap.Error(err))
			sum.SendFailures++
			continue
		}
		email.To = manager.Email
		if email.From == "" {
			email.From = cfg.Interest.FromEmail
		}

		if err := o.Sender.Send(email); err != nil {
			o.Log.Error("send leader reminder",
				zap.String("to", manager.Email), zap.Error(err))
			sum.SendFailures++
			continue
		}
		sum.LeaderEmails++
	}
}

func memberName(m models.Member) string {
	if m.MiddleName != "" {
		return m.GivenName + " " + m.MiddleName + " " + m.FamilyName
	}
	return m.GivenName + " " + m.FamilyName
}
