package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"github.com/jaujye/ocean-shopping-center-sub001/store"
)

func sampleNotification() SendNotificationRequest {
	return SendNotificationRequest{
		Title:    "Order update",
		Message:  "Your order #42 has shipped",
		Type:     models.NotificationTypeOrderUpdate,
		Priority: models.PriorityNormal,
	}
}

func TestSendNotificationDeliveredOnPublish(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)

	target := createUser(t, db, "bob", models.RoleCustomer)

	resp, err := svc.SendNotification(target.ID, sampleNotification())
	if err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if resp.DeliveryStatus != models.DeliveryDelivered {
		t.Errorf("delivery status = %s, want DELIVERED", resp.DeliveryStatus)
	}
	if resp.IsRead {
		t.Error("new notification must not be read")
	}
	if got := dispatcher.recordsFor(target.ID, TopicNotificationSent); len(got) != 1 {
		t.Errorf("publishes = %d, want 1", len(got))
	}

	if _, err := svc.SendNotification(uuid.New(), sampleNotification()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown target: err = %v, want ErrUserNotFound", err)
	}
}

func TestSendNotificationPublishFailureMarksFailed(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)

	target := createUser(t, db, "bob", models.RoleCustomer)
	dispatcher.failFor[target.ID] = true

	resp, err := svc.SendNotification(target.ID, sampleNotification())
	if err != nil {
		t.Fatalf("publish failure must not surface, got %v", err)
	}
	if resp.DeliveryStatus != models.DeliveryFailed {
		t.Errorf("delivery status = %s, want FAILED", resp.DeliveryStatus)
	}
}

func TestSendBulkNotificationValidation(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	req := BulkNotificationRequest{SendNotificationRequest: sampleNotification()}
	if _, err := svc.SendBulkNotification(req); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("empty recipients: err = %v, want ErrNoRecipients", err)
	}
}

func TestSendBulkNotificationIsolatesRecipients(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)

	alice := createUser(t, db, "alice", models.RoleCustomer)
	bob := createUser(t, db, "bob", models.RoleCustomer)
	ghost := uuid.New()

	req := BulkNotificationRequest{
		SendNotificationRequest: sampleNotification(),
		TargetUserIDs:           []uuid.UUID{alice.ID, ghost, bob.ID},
	}
	created, err := svc.SendBulkNotification(req)
	if err != nil {
		t.Fatalf("SendBulkNotification: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2 (ghost recipient skipped)", len(created))
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 2 {
		t.Errorf("rows = %d, want 2 independent rows", count)
	}

	// Each row is independently readable and deletable by its owner.
	for _, n := range created {
		if _, err := svc.MarkNotificationAsRead(n.TargetUserID, n.ID); err != nil {
			t.Errorf("owner %s mark read: %v", n.TargetUserID, err)
		}
		if err := svc.DeleteNotification(n.TargetUserID, n.ID); err != nil {
			t.Errorf("owner %s delete: %v", n.TargetUserID, err)
		}
	}
}

func TestNotificationQueriesReturnEmptyNotError(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	user := createUser(t, db, "bob", models.RoleCustomer)

	all, err := svc.GetUserNotifications(user.ID, 1, 50)
	if err != nil {
		t.Fatalf("GetUserNotifications: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("notifications = %d, want 0", len(all))
	}

	unread, err := svc.GetUnreadNotifications(user.ID)
	if err != nil || len(unread) != 0 {
		t.Errorf("unread = %v, %v; want empty, nil", unread, err)
	}

	if _, err := svc.GetUserNotifications(uuid.New(), 1, 50); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v, want ErrUserNotFound", err)
	}
}

func TestGetHighPriorityNotifications(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	user := createUser(t, db, "bob", models.RoleCustomer)

	for _, priority := range []models.NotificationPriority{models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent} {
		req := sampleNotification()
		req.Priority = priority
		if _, err := svc.SendNotification(user.ID, req); err != nil {
			t.Fatalf("send %s: %v", priority, err)
		}
	}

	high, err := svc.GetHighPriorityNotifications(user.ID)
	if err != nil {
		t.Fatalf("GetHighPriorityNotifications: %v", err)
	}
	if len(high) != 2 {
		t.Fatalf("high priority rows = %d, want 2", len(high))
	}
	for _, n := range high {
		if n.Priority != models.PriorityHigh && n.Priority != models.PriorityUrgent {
			t.Errorf("unexpected priority %s", n.Priority)
		}
	}
}

func TestGetNotificationsByType(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	user := createUser(t, db, "bob", models.RoleCustomer)

	order := sampleNotification()
	promo := sampleNotification()
	promo.Type = models.NotificationTypePromotion
	if _, err := svc.SendNotification(user.ID, order); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendNotification(user.ID, promo); err != nil {
		t.Fatalf("send: %v", err)
	}

	promos, err := svc.GetNotificationsByType(user.ID, models.NotificationTypePromotion)
	if err != nil {
		t.Fatalf("GetNotificationsByType: %v", err)
	}
	if len(promos) != 1 || promos[0].Type != models.NotificationTypePromotion {
		t.Errorf("promos = %v, want exactly the promotion row", promos)
	}
}

func TestMarkNotificationAsReadIsIdempotent(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)

	user := createUser(t, db, "bob", models.RoleCustomer)
	sent, err := svc.SendNotification(user.ID, sampleNotification())
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	first, err := svc.MarkNotificationAsRead(user.ID, sent.ID)
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatal("notification must be read with a timestamp")
	}
	acks := dispatcher.recordsFor(user.ID, TopicNotificationRead)
	if len(acks) != 1 {
		t.Fatalf("read acks = %d, want 1", len(acks))
	}

	if _, err := svc.MarkNotificationAsRead(user.ID, sent.ID); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if got := dispatcher.recordsFor(user.ID, TopicNotificationRead); len(got) != 1 {
		t.Errorf("read acks after second mark = %d, want 1 (no re-publish)", len(got))
	}

	other := createUser(t, db, "mallory", models.RoleCustomer)
	if _, err := svc.MarkNotificationAsRead(other.ID, sent.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("non-owner mark: err = %v, want ErrNotificationNotFound", err)
	}
}

func TestMarkNotificationsAsReadAllOrNothingOwnership(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	alice := createUser(t, db, "alice", models.RoleCustomer)
	bob := createUser(t, db, "bob", models.RoleCustomer)

	mine1, _ := svc.SendNotification(alice.ID, sampleNotification())
	mine2, _ := svc.SendNotification(alice.ID, sampleNotification())
	theirs, _ := svc.SendNotification(bob.ID, sampleNotification())

	_, err := svc.MarkNotificationsAsRead(alice.ID, []uuid.UUID{mine1.ID, theirs.ID, mine2.ID})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("cross-owner bulk read: err = %v, want ErrNotOwner", err)
	}

	var read int64
	db.Model(&models.Notification{}).Where("is_read = ?", true).Count(&read)
	if read != 0 {
		t.Errorf("read rows = %d, want 0 (nothing mutated)", read)
	}

	count, err := svc.MarkNotificationsAsRead(alice.ID, []uuid.UUID{mine1.ID, mine2.ID})
	if err != nil {
		t.Fatalf("own bulk read: %v", err)
	}
	if count != 2 {
		t.Errorf("flipped = %d, want 2", count)
	}
}

func TestDeleteNotificationIsHardDelete(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)

	user := createUser(t, db, "bob", models.RoleCustomer)
	sent, err := svc.SendNotification(user.ID, sampleNotification())
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	other := createUser(t, db, "mallory", models.RoleCustomer)
	if err := svc.DeleteNotification(other.ID, sent.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("non-owner delete: err = %v, want ErrNotificationNotFound", err)
	}

	if err := svc.DeleteNotification(user.ID, sent.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("rows = %d, want 0 after hard delete", count)
	}
	if got := dispatcher.recordsFor(user.ID, TopicNotificationDeleted); len(got) != 1 {
		t.Errorf("delete events = %d, want 1", len(got))
	}
}

func TestProcessPendingNotificationsClaimsOnce(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)
	notifications := store.NewNotificationStore(db)

	user := createUser(t, db, "bob", models.RoleCustomer)

	stuck := models.Notification{
		Title:          "stuck",
		Message:        "row left PENDING by a crash",
		Type:           models.NotificationTypeSystem,
		Priority:       models.PriorityNormal,
		TargetUserID:   user.ID,
		DeliveryStatus: models.DeliveryPending,
	}
	if err := notifications.Create(&stuck); err != nil {
		t.Fatalf("create: %v", err)
	}
	alreadyDone := models.Notification{
		Title:          "done",
		Message:        "already delivered",
		Type:           models.NotificationTypeSystem,
		Priority:       models.PriorityNormal,
		TargetUserID:   user.ID,
		DeliveryStatus: models.DeliveryDelivered,
	}
	if err := notifications.Create(&alreadyDone); err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := svc.ProcessPendingNotifications()
	if err != nil {
		t.Fatalf("ProcessPendingNotifications: %v", err)
	}
	if claimed != 1 {
		t.Errorf("claimed = %d, want 1", claimed)
	}

	var reloaded models.Notification
	db.First(&reloaded, "id = ?", stuck.ID)
	if reloaded.DeliveryStatus != models.DeliveryDelivered {
		t.Errorf("status = %s, want DELIVERED", reloaded.DeliveryStatus)
	}

	// Re-invocation finds nothing left to claim.
	claimed, err = svc.ProcessPendingNotifications()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if claimed != 0 {
		t.Errorf("second run claimed = %d, want 0", claimed)
	}
}

func TestProcessPendingMarksFailedWhenPublishFails(t *testing.T) {
	db := setupDB(t)
	dispatcher := newFakeDispatcher()
	svc := newNotificationService(t, db, dispatcher)
	notifications := store.NewNotificationStore(db)

	user := createUser(t, db, "bob", models.RoleCustomer)
	dispatcher.failFor[user.ID] = true

	stuck := models.Notification{
		Title:          "stuck",
		Message:        "pending",
		Type:           models.NotificationTypeSystem,
		Priority:       models.PriorityNormal,
		TargetUserID:   user.ID,
		DeliveryStatus: models.DeliveryPending,
	}
	if err := notifications.Create(&stuck); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ProcessPendingNotifications(); err != nil {
		t.Fatalf("ProcessPendingNotifications: %v", err)
	}

	var reloaded models.Notification
	db.First(&reloaded, "id = ?", stuck.ID)
	if reloaded.DeliveryStatus != models.DeliveryFailed {
		t.Errorf("status = %s, want FAILED", reloaded.DeliveryStatus)
	}
}

func TestCleanupExpiredNotifications(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())
	notifications := store.NewNotificationStore(db)

	user := createUser(t, db, "bob", models.RoleCustomer)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expiredRead := models.Notification{
		Title: "old read", Message: "m", Type: models.NotificationTypeSystem,
		Priority: models.PriorityNormal, TargetUserID: user.ID,
		DeliveryStatus: models.DeliveryDelivered, IsRead: true, ExpiresAt: &past,
	}
	expiredPending := models.Notification{
		Title: "old pending", Message: "m", Type: models.NotificationTypeSystem,
		Priority: models.PriorityNormal, TargetUserID: user.ID,
		DeliveryStatus: models.DeliveryPending, ExpiresAt: &past,
	}
	fresh := models.Notification{
		Title: "fresh", Message: "m", Type: models.NotificationTypeSystem,
		Priority: models.PriorityNormal, TargetUserID: user.ID,
		DeliveryStatus: models.DeliveryDelivered, ExpiresAt: &future,
	}
	forever := models.Notification{
		Title: "no expiry", Message: "m", Type: models.NotificationTypeSystem,
		Priority: models.PriorityNormal, TargetUserID: user.ID,
		DeliveryStatus: models.DeliveryDelivered,
	}
	for _, n := range []*models.Notification{&expiredRead, &expiredPending, &fresh, &forever} {
		if err := notifications.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	removed, err := svc.CleanupExpiredNotifications()
	if err != nil {
		t.Fatalf("CleanupExpiredNotifications: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	var left int64
	db.Model(&models.Notification{}).Count(&left)
	if left != 2 {
		t.Errorf("rows left = %d, want 2", left)
	}
}

func TestCanReadNotification(t *testing.T) {
	db := setupDB(t)
	svc := newNotificationService(t, db, newFakeDispatcher())

	alice := createUser(t, db, "alice", models.RoleCustomer)
	bob := createUser(t, db, "bob", models.RoleCustomer)

	sent, err := svc.SendNotification(alice.ID, sampleNotification())
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if ok, _ := svc.CanReadNotification(alice.ID, sent.ID); !ok {
		t.Error("owner must be able to read")
	}
	if ok, _ := svc.CanReadNotification(bob.ID, sent.ID); ok {
		t.Error("non-owner must not be able to read")
	}
	if ok, _ := svc.CanReadNotification(alice.ID, uuid.New()); ok {
		t.Error("missing row must not be readable")
	}
}
