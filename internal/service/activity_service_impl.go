package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
)

type activityService struct {
	store    *recordstore.Store
	observer UseCaseObserver
}

func NewActivityService(store *recordstore.Store, observers ...UseCaseObserver) ActivityService {
	return &activityService{store: store, observer: useCaseObserverOrNoop(observers)}
}

func (s *activityService) List(ctx context.Context, f ActivityListFilter) ([]domain.Activity, error) {
	if f.Type != "" && !domain.ValidActivityTypes[f.Type] {
		return nil, fmt.Errorf("unknown activity type %q", f.Type)
	}
	list, err := s.store.Activities.List(ctx, recordstore.ActivityQuery{
		Type:      f.Type,
		ContactID: f.ContactID,
		DealID:    f.DealID,
		Limit:     f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	sortActivities(list, f.Sort)
	return list, nil
}

func sortActivities(list []domain.Activity, by ActivitySort) {
	switch by {
	case SortActivitiesRecent:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	case SortActivitiesOldest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	case SortActivitiesByType:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	}
}

// Log records an activity. The store stamps the contact's last-contacted
// time in the same write.
func (s *activityService) Log(ctx context.Context, a domain.Activity) (logged domain.Activity, err error) {
	fields := map[string]any{"type": string(a.Type), "contact_id": a.ContactID}
	defer observe(ctx, s.observer, "log-activity", fields, &err)()

	logged, err = s.store.Activities.Create(ctx, a)
	if err != nil {
		return domain.Activity{}, err
	}
	fields["activity_id"] = logged.ID
	return logged, nil
}

func (s *activityService) Update(ctx context.Context, id int64, patch domain.ActivityPatch) (domain.Activity, error) {
	return s.store.Activities.Update(ctx, id, patch)
}

func (s *activityService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Activities.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
