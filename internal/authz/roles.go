package authz

const (
	TypeDeveloper = 1
	TypeAdmin     = 2
	TypeCustomer  = 3
)

func IsStaff(userType int) bool {
	return userType == TypeDeveloper || userType == TypeAdmin
}
