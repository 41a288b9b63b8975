package service

import (
	"errors"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

type FriendService struct {
	friends repository.FriendRepository
	users   repository.UserRepository
}

func NewFriendService(friends repository.FriendRepository, users repository.UserRepository) *FriendService {
	return &FriendService{friends: friends, users: users}
}

func (s *FriendService) Friends(userID string) ([]*model.User, error) {
	friends, err := s.friends.Friends(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return friends, nil
}

func (s *FriendService) Requests(userID string) ([]*model.FriendRequest, error) {
	requests, err := s.friends.Requests(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return requests, nil
}

// SendRequest creates a pending friend request toward targetID.
func (s *FriendService) SendRequest(requesterID, targetID string) (*model.FriendRequest, error) {
	if requesterID == targetID {
		return nil, apperr.BadInput("cannot send a friend request to yourself")
	}

	if _, err := s.users.ByID(targetID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	already, err := s.friends.AreFriends(requesterID, targetID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if already {
		return nil, apperr.Conflict("already friends")
	}

	request, err := s.friends.AddRequest(requesterID, targetID)
	if errors.Is(err, repository.ErrDuplicateRequest) {
		return nil, apperr.Conflict("friend request already sent")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create friend request", err)
	}

	return request, nil
}

// AcceptRequest consumes the pending request and records the friendship.
// Only the requestee may accept.
func (s *FriendService) AcceptRequest(userID, requestID string) (*model.FriendRequest, error) {
	request, err := s.friends.AcceptRequest(requestID, userID)
	if errors.Is(err, repository.ErrFriendRequestNotFound) {
		return nil, apperr.NotFound("friend request not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to accept friend request", err)
	}
	return request, nil
}

func (s *FriendService) RejectRequest(userID, requestID string) error {
	err := s.friends.RejectRequest(requestID, userID)
	if errors.Is(err, repository.ErrFriendRequestNotFound) {
		return apperr.NotFound("friend request not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to reject friend request", err)
	}
	return nil
}

// SearchUsers finds users by nickname fragment for the add-friend screen.
func (s *FriendService) SearchUsers(keyword string) ([]*model.User, error) {
	if keyword == "" {
		return nil, apperr.BadInput("search keyword is required")
	}

	users, err := s.users.SearchByNickname(keyword)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}
