package domain

import (
	"slices"
	"time"
)

// compareChronological orders change-sets by timestamp, breaking ties by id
// so that any permutation of a log sorts identically.
func compareChronological(a, b ChangeSet) int {
	if c := a.timestamp.Compare(b.timestamp); c != 0 {
		return c
	}
	return CompareIdentity(a, b)
}

func sortOldestFirst(log []ChangeSet) []ChangeSet {
	sorted := slices.Clone(log)
	slices.SortFunc(sorted, compareChronological)
	return sorted
}

func sortNewestFirst(log []ChangeSet) []ChangeSet {
	sorted := sortOldestFirst(log)
	slices.Reverse(sorted)
	return sorted
}

// newestPresent returns the value of the first change-set, scanning
// newest-first, that supplies the field.
func newestPresent[T any](newestFirst []ChangeSet, pick func(ChangeSet) (T, bool)) (T, bool) {
	for _, cs := range newestFirst {
		if v, ok := pick(cs); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// oldestPresent scans newest-first and keeps the last match, i.e. the
// chronologically earliest change-set that supplies the field.
func oldestPresent[T any](newestFirst []ChangeSet, pick func(ChangeSet) (T, bool)) (T, bool) {
	var found T
	ok := false
	for _, cs := range newestFirst {
		if v, has := pick(cs); has {
			found, ok = v, true
		}
	}
	return found, ok
}

func present[T any](field func(ChangeSet) Optional[T]) func(ChangeSet) (T, bool) {
	return func(cs ChangeSet) (T, bool) {
		return field(cs).Get()
	}
}

func nonEmptyText(field func(ChangeSet) LocalizedText) func(ChangeSet) (LocalizedText, bool) {
	return func(cs ChangeSet) (LocalizedText, bool) {
		text := field(cs)
		return text, !text.IsEmpty()
	}
}

func nonEmptyTags[T ~string](field func(ChangeSet) TagSet[T]) func(ChangeSet) (TagSet[T], bool) {
	return func(cs ChangeSet) (TagSet[T], bool) {
		set := field(cs)
		return set, !set.IsEmpty()
	}
}

func nonEmptyAffected(cs ChangeSet) (AffectedSet, bool) {
	return cs.affected, !cs.affected.IsEmpty()
}

// Origin fields are pinned to the oldest change-set.

func resolveOrigin(newestFirst []ChangeSet) (ChangeSet, bool) {
	if len(newestFirst) == 0 {
		return ChangeSet{}, false
	}
	return newestFirst[len(newestFirst)-1], true
}

func resolveAuthor(newestFirst []ChangeSet) Reference[User] {
	origin, _ := resolveOrigin(newestFirst)
	return origin.author
}

func resolveCreated(newestFirst []ChangeSet) time.Time {
	origin, _ := resolveOrigin(newestFirst)
	return origin.timestamp
}

func resolveLastModified(newestFirst []ChangeSet) time.Time {
	if len(newestFirst) == 0 {
		return time.Time{}
	}
	return newestFirst[0].timestamp
}

// Newest-wins-if-present fields.

func resolveTitle(newestFirst []ChangeSet) LocalizedText {
	v, _ := newestPresent(newestFirst, nonEmptyText(ChangeSet.Title))
	return v
}

func resolveLocation(newestFirst []ChangeSet) LocalizedText {
	v, _ := newestPresent(newestFirst, nonEmptyText(ChangeSet.Location))
	return v
}

func resolveAdditionalInfo(newestFirst []ChangeSet) LocalizedText {
	v, _ := newestPresent(newestFirst, nonEmptyText(ChangeSet.AdditionalInfo))
	return v
}

func resolveAffected(newestFirst []ChangeSet) AffectedSet {
	v, _ := newestPresent(newestFirst, nonEmptyAffected)
	return v
}

func resolvePriority(newestFirst []ChangeSet) Priority {
	if v, ok := newestPresent(newestFirst, present(ChangeSet.Priority)); ok {
		return v
	}
	return PriorityNormal
}

func resolvePrivacyLevel(newestFirst []ChangeSet) PrivacyLevel {
	if v, ok := newestPresent(newestFirst, present(ChangeSet.PrivacyLevel)); ok {
		return v
	}
	return PrivacyPrivate
}

func resolveGeoLocation(newestFirst []ChangeSet) Optional[GeoLocation] {
	if v, ok := newestPresent(newestFirst, present(ChangeSet.GeoLocation)); ok {
		return Some(v)
	}
	return None[GeoLocation]()
}

func resolveProblemDescriptions(newestFirst []ChangeSet) TagSet[ProblemDescription] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.ProblemDescriptions))
	return v
}

func resolveStatusIndicators(newestFirst []ChangeSet) TagSet[StatusIndicator] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.StatusIndicators))
	return v
}

func resolveReactions(newestFirst []ChangeSet) TagSet[Reaction] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.Reactions))
	return v
}

func resolveAttachedFiles(newestFirst []ChangeSet) TagSet[FileReference] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.AttachedFiles))
	return v
}

func resolveTicketReferences(newestFirst []ChangeSet) TagSet[TicketReference] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.TicketReferences))
	return v
}

func resolveDataLicenses(newestFirst []ChangeSet) TagSet[DataLicense] {
	v, _ := newestPresent(newestFirst, nonEmptyTags(ChangeSet.DataLicenses))
	return v
}

// resolveFirstResponse is oldest-wins: a first response, once recorded, is
// never replaced by a later change-set that also carries one.
func resolveFirstResponse(newestFirst []ChangeSet) Optional[FirstResponseMark] {
	if v, ok := oldestPresent(newestFirst, present(ChangeSet.FirstResponse)); ok {
		return Some(v)
	}
	return None[FirstResponseMark]()
}

// statusTimeline emits one entry per change-set, oldest first, paired with
// the status in effect at that change-set.
func statusTimeline(oldestFirst []ChangeSet) []StatusEntry {
	timeline := make([]StatusEntry, 0, len(oldestFirst))
	current := StatusNew
	for _, cs := range oldestFirst {
		if s, ok := cs.status.Get(); ok {
			current = s
		}
		timeline = append(timeline, StatusEntry{Timestamp: cs.timestamp, Status: current})
	}
	return timeline
}

// resolveStatus returns the last timeline entry, or (created, new) when no
// change-set ever specified a status.
func resolveStatus(oldestFirst []ChangeSet, timeline []StatusEntry) StatusEntry {
	if len(oldestFirst) == 0 {
		return StatusEntry{Status: StatusNew}
	}
	specified := slices.ContainsFunc(oldestFirst, func(cs ChangeSet) bool {
		return cs.status.IsPresent()
	})
	if !specified {
		return StatusEntry{Timestamp: oldestFirst[0].timestamp, Status: StatusNew}
	}
	return timeline[len(timeline)-1]
}

func commentThread(oldestFirst []ChangeSet) []Comment {
	var thread []Comment
	for _, cs := range oldestFirst {
		if cs.comment.IsEmpty() {
			continue
		}
		thread = append(thread, Comment{
			ChangeSetID: cs.id,
			Timestamp:   cs.timestamp,
			Author:      cs.author,
			Text:        cs.comment,
			InReplyTo:   cs.inReplyTo,
		})
	}
	return thread
}

// validateLog checks the invariants a ticket cannot exist without.
func validateLog(newestFirst []ChangeSet) error {
	origin, ok := resolveOrigin(newestFirst)
	if !ok {
		return ErrEmptyLog
	}
	if origin.author.IsZero() {
		return ErrMissingAuthor
	}
	if resolveTitle(newestFirst).IsEmpty() {
		return ErrMissingTitle
	}
	return nil
}

// project folds a log into its projection. It is a pure function of the
// log's contents; input order is irrelevant.
func project(ticketID string, log []ChangeSet) Projection {
	oldestFirst := sortOldestFirst(log)
	newestFirst := slices.Clone(oldestFirst)
	slices.Reverse(newestFirst)
	timeline := statusTimeline(oldestFirst)

	return Projection{
		ID:                  ticketID,
		Author:              resolveAuthor(newestFirst),
		Created:             resolveCreated(newestFirst),
		LastModified:        resolveLastModified(newestFirst),
		Title:               resolveTitle(newestFirst),
		Status:              resolveStatus(oldestFirst, timeline),
		StatusHistory:       timeline,
		Priority:            resolvePriority(newestFirst),
		PrivacyLevel:        resolvePrivacyLevel(newestFirst),
		Location:            resolveLocation(newestFirst),
		GeoLocation:         resolveGeoLocation(newestFirst),
		AdditionalInfo:      resolveAdditionalInfo(newestFirst),
		Affected:            resolveAffected(newestFirst),
		ProblemDescriptions: resolveProblemDescriptions(newestFirst),
		StatusIndicators:    resolveStatusIndicators(newestFirst),
		Reactions:           resolveReactions(newestFirst),
		AttachedFiles:       resolveAttachedFiles(newestFirst),
		TicketReferences:    resolveTicketReferences(newestFirst),
		DataLicenses:        resolveDataLicenses(newestFirst),
		FirstResponse:       resolveFirstResponse(newestFirst),
		Comments:            commentThread(oldestFirst),
		ChangeSetCount:      len(log),
	}
}
