package service

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"registrar/internal/client/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestSaveClient() {
	ctx := context.Background()
	key, _ := ConstructPrimaryKey(otherUser, clientID)

	s.Run("stamps the composite key", func() {
		s.mockLocal.EXPECT().Save(gomock.Any(), key, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, c *models.Client) error {
				s.Equal(key, c.Meta.PrimaryKey)
				return nil
			})

		stored, err := s.service.SaveClient(ctx, otherUser, &models.Client{ID: clientID})
		s.Require().NoError(err)
		s.Equal(key, stored.Meta.PrimaryKey)
	})

	s.Run("missing ids", func() {
		_, err := s.service.SaveClient(ctx, "", &models.Client{ID: clientID})
		s.True(models.IsKind(err, models.KindMissingUserID))

		_, err = s.service.SaveClient(ctx, otherUser, nil)
		s.True(models.IsKind(err, models.KindMissingClientID))
	})

	s.Run("store failure", func() {
		s.mockLocal.EXPECT().Save(gomock.Any(), key, gomock.Any()).Return(errors.New("read-only"))

		_, err := s.service.SaveClient(ctx, otherUser, &models.Client{ID: clientID})
		s.True(models.IsKind(err, models.KindDatabaseFailure))
	})
}

func (s *ServiceSuite) TestSyncClients() {
	ctx := context.Background()
	keyA, _ := ConstructPrimaryKey(otherUser, "a1")
	keyB, _ := ConstructPrimaryKey(otherUser, "a2")

	s.Run("persists every client and keeps local verification", func() {
		s.mockAuthority.EXPECT().ListClients(gomock.Any(), otherUser).
			Return([]models.Payload{{ID: "a1", Class: "phone"}, {ID: "a2", Label: "Tablet"}}, nil)
		s.mockLocal.EXPECT().Load(gomock.Any(), keyA).
			Return(&models.Client{ID: "a1", Meta: models.Meta{IsVerified: true}}, nil)
		s.mockLocal.EXPECT().Save(gomock.Any(), keyA, gomock.Any()).Return(nil)
		s.mockLocal.EXPECT().Load(gomock.Any(), keyB).Return(nil, sentinel.ErrNotFound)
		s.mockLocal.EXPECT().Save(gomock.Any(), keyB, gomock.Any()).Return(nil)

		synced, err := s.service.SyncClients(ctx, otherUser)
		s.Require().NoError(err)
		s.Require().Len(synced, 2)
		s.True(synced[0].Meta.IsVerified)
		s.Equal(keyA, synced[0].Meta.PrimaryKey)
		s.Equal(models.ClassPhone, synced[0].Class)
		s.False(synced[1].Meta.IsVerified)
		s.Equal("Tablet", synced[1].Label)
	})

	s.Run("skips this instance's client", func() {
		s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID}))
		s.mockAuthority.EXPECT().ListClients(gomock.Any(), selfUser).
			Return([]models.Payload{{ID: string(clientID)}}, nil)

		synced, err := s.service.SyncClients(ctx, selfUser)
		s.Require().NoError(err)
		s.Empty(synced)
	})

	s.Run("store failure stops the sync", func() {
		s.mockAuthority.EXPECT().ListClients(gomock.Any(), otherUser).
			Return([]models.Payload{{ID: "a1"}, {ID: "a2"}}, nil)
		s.mockLocal.EXPECT().Load(gomock.Any(), keyA).Return(nil, errors.New("corrupt"))

		_, err := s.service.SyncClients(ctx, otherUser)
		s.True(models.IsKind(err, models.KindDatabaseFailure))
	})

	s.Run("backend failure persists nothing", func() {
		s.mockAuthority.EXPECT().ListClients(gomock.Any(), otherUser).Return(nil, errors.New("timeout"))

		_, err := s.service.SyncClients(ctx, otherUser)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestSaveCurrentClient() {
	ctx := context.Background()

	s.Run("persists under the well-known key and installs it", func() {
		s.mockLocal.EXPECT().Save(gomock.Any(), models.PrimaryKeyCurrentClient, gomock.Any()).Return(nil)

		s.Require().NoError(s.service.SaveCurrentClient(ctx, persisted(models.ClientTypePermanent)))
		current := s.service.CurrentClient()
		s.Require().NotNil(current)
		s.Equal(models.PrimaryKeyCurrentClient, current.Meta.PrimaryKey)
	})

	s.Run("store failure leaves the current client alone", func() {
		s.service.ClearCurrentClient()
		s.mockLocal.EXPECT().Save(gomock.Any(), models.PrimaryKeyCurrentClient, gomock.Any()).Return(errors.New("full"))

		err := s.service.SaveCurrentClient(ctx, persisted(models.ClientTypePermanent))
		s.True(models.IsKind(err, models.KindDatabaseFailure))
		s.Nil(s.service.CurrentClient())
	})

	s.Run("rejects a client without id", func() {
		err := s.service.SaveCurrentClient(ctx, &models.Client{})
		s.True(models.IsKind(err, models.KindMissingClientID))
	})
}

func (s *ServiceSuite) TestLoadClient() {
	ctx := context.Background()
	key, _ := ConstructPrimaryKey(otherUser, clientID)

	s.Run("found", func() {
		s.mockLocal.EXPECT().Load(gomock.Any(), key).Return(&models.Client{ID: clientID}, nil)

		client, err := s.service.LoadClient(ctx, otherUser, clientID)
		s.Require().NoError(err)
		s.Equal(clientID, client.ID)
	})

	s.Run("not found", func() {
		s.mockLocal.EXPECT().Load(gomock.Any(), key).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.LoadClient(ctx, otherUser, clientID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, isClientErr := models.KindOf(err)
		s.False(isClientErr)
	})

	s.Run("store failure", func() {
		s.mockLocal.EXPECT().Load(gomock.Any(), key).Return(nil, errors.New("corrupt"))

		_, err := s.service.LoadClient(ctx, otherUser, clientID)
		s.True(models.IsKind(err, models.KindDatabaseFailure))
	})
}

func (s *ServiceSuite) TestVerifyClient() {
	ctx := context.Background()

	s.Run("remote client", func() {
		key, _ := ConstructPrimaryKey(otherUser, clientID)
		s.mockLocal.EXPECT().Load(gomock.Any(), key).Return(&models.Client{ID: clientID}, nil)
		s.mockLocal.EXPECT().Save(gomock.Any(), key, gomock.Any()).Return(nil)

		client, err := s.service.VerifyClient(ctx, otherUser, clientID, true)
		s.Require().NoError(err)
		s.True(client.Meta.IsVerified)
		s.Equal(key, client.Meta.PrimaryKey)
	})

	s.Run("current client is updated under the current client key", func() {
		s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID, Type: models.ClientTypePermanent}))
		s.mockLocal.EXPECT().Save(gomock.Any(), models.PrimaryKeyCurrentClient, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, c *models.Client) error {
				s.True(c.Meta.IsVerified)
				return nil
			})

		client, err := s.service.VerifyClient(ctx, selfUser, clientID, true)
		s.Require().NoError(err)
		s.True(client.Meta.IsVerified)
		s.Equal(models.PrimaryKeyCurrentClient, client.Meta.PrimaryKey)
		s.True(s.service.CurrentClient().Meta.IsVerified)
	})

	s.Run("unknown client", func() {
		key, _ := ConstructPrimaryKey(otherUser, id.ClientID("abc"))
		s.mockLocal.EXPECT().Load(gomock.Any(), key).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.VerifyClient(ctx, otherUser, id.ClientID("abc"), true)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing ids never reach the store", func() {
		_, err := s.service.VerifyClient(ctx, otherUser, "", true)
		s.True(models.IsKind(err, models.KindMissingClientID))
	})
}

func (s *ServiceSuite) TestDeleteClient() {
	ctx := context.Background()

	s.Run("deletes another device", func() {
		key, _ := ConstructPrimaryKey(otherUser, clientID)
		s.mockLocal.EXPECT().Delete(gomock.Any(), key).Return(true, nil)

		deleted, err := s.service.DeleteClient(ctx, otherUser, clientID)
		s.Require().NoError(err)
		s.True(deleted)
	})

	s.Run("refuses the current client", func() {
		s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID}))

		_, err := s.service.DeleteClient(ctx, selfUser, clientID)
		s.True(models.IsKind(err, models.KindCurrentClientDeletion))
	})

	s.Run("store failure", func() {
		key, _ := ConstructPrimaryKey(otherUser, clientID)
		s.mockLocal.EXPECT().Delete(gomock.Any(), key).Return(false, errors.New("locked"))

		_, err := s.service.DeleteClient(ctx, otherUser, clientID)
		s.True(models.IsKind(err, models.KindDatabaseFailure))
	})
}
