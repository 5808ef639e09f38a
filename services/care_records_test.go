package services

import (
	"context"
	"testing"

	"eldercare-server/models"
)

func TestAppointmentsOwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCareRecordService(db)
	admin := createUser(t, db, models.RoleAdmin, "ada")
	p1 := createUser(t, db, models.RoleProvider, "pat")
	p2 := createUser(t, db, models.RoleProvider, "sam")

	appt, err := svc.CreateAppointment(ctx, p1, models.AppointmentCreate{UserID: p1.ID, Type: "checkup", Details: "annual"})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	_, err = svc.CreateAppointment(ctx, p2, models.AppointmentCreate{UserID: p1.ID, Type: "x", Details: "y"})
	assertKind(t, err, KindForbidden)

	_, err = svc.CreateAppointment(ctx, admin, models.AppointmentCreate{UserID: 999, Type: "x", Details: "y"})
	assertKind(t, err, KindNotFound)

	list, err := svc.ListAppointments(ctx, admin, p1.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListAppointments: %v %+v", err, list)
	}

	assertKind(t, svc.CancelAppointment(ctx, p2, appt.ID), KindForbidden)
	if err := svc.CancelAppointment(ctx, p1, appt.ID); err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}
	assertKind(t, svc.CancelAppointment(ctx, p1, appt.ID), KindNotFound)
}

func TestHealthRecords(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCareRecordService(db)
	p1 := createUser(t, db, models.RoleProvider, "pat")
	p2 := createUser(t, db, models.RoleProvider, "sam")

	hr := 72
	bp := "120/80"
	if _, err := svc.CreateHealthRecord(ctx, p1, models.HealthRecordCreate{UserID: p1.ID, HeartRate: &hr, BloodPressure: &bp}); err != nil {
		t.Fatalf("CreateHealthRecord: %v", err)
	}

	_, err := svc.ListHealthRecords(ctx, p2, p1.ID)
	assertKind(t, err, KindForbidden)

	list, err := svc.ListHealthRecords(ctx, p1, p1.ID)
	if err != nil || len(list) != 1 || *list[0].HeartRate != 72 {
		t.Fatalf("ListHealthRecords: %v %+v", err, list)
	}
}
