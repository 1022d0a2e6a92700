package dto

// StudentRequest is the body of PUT /students/:id.
type StudentRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Mood      string   `json:"mood" validate:"omitempty,oneof=happy neutral bored frustrated excited"`
	Academic  int      `json:"academic" validate:"min=0,max=100"`
	Behavior  int      `json:"behavior" validate:"min=0,max=100"`
	RivalIDs  []string `json:"rivalIds" validate:"omitempty,dive,required"`
	FriendIDs []string `json:"friendIds" validate:"omitempty,dive,required"`
}
