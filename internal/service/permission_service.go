package service

import (
	"fmt"
	"log/slog"
	"strings"

	"filestorage/internal/domain"
)

// PermissionService представляет сервис для проверки прав доступа к ресурсам
type PermissionService struct{}

// NewPermissionService создает новый экземпляр PermissionService
func NewPermissionService() *PermissionService {
	return &PermissionService{}
}

// OperationType определяет тип операции
type OperationType string

const (
	OperationDownload OperationType = "download"
	OperationPresign  OperationType = "presign"
	OperationDelete   OperationType = "delete"
)

// elevatedRoles могут удалять любой ресурс проекта
var elevatedRoles = domain.Roles{domain.RoleManager, domain.RoleOwner}

// CheckAccess проверяет право пользователя на операцию с ресурсом
func (s *PermissionService) CheckAccess(user *domain.User, res *domain.Resource, operation OperationType) error {
	switch operation {
	case OperationDownload, OperationPresign:
		return s.checkRead(user, res)
	case OperationDelete:
		return s.checkDelete(user, res)
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrAccessDenied, operation)
	}
}

// checkRead разрешает чтение, если роли пользователя пересекаются с allowedRoles ресурса.
// Пустой allowedRoles считается ошибкой настройки и закрывает доступ всем.
func (s *PermissionService) checkRead(user *domain.User, res *domain.Resource) error {
	if len(res.AllowedRoles) == 0 {
		return ErrRolesNotConfigured
	}
	if !user.Roles.Intersects(res.AllowedRoles) {
		return fmt.Errorf("%w: user %d has none of the roles allowed for resource %d", ErrAccessDenied, user.ID, res.ID)
	}
	return nil
}

func (s *PermissionService) checkDelete(user *domain.User, res *domain.Resource) error {
	if res.CreatedBy == user.ID || user.Roles.Intersects(elevatedRoles) {
		return nil
	}
	return fmt.Errorf("%w: only the creator, a manager or an owner can delete resource %d", ErrAccessDenied, res.ID)
}

// ResolveAllowedRoles вычисляет allowedRoles нового ресурса.
// Неизвестные токены отбрасываются с предупреждением; если не осталось ни одной роли, берутся роли загружающего.
func (s *PermissionService) ResolveAllowedRoles(explicit []string, caller *domain.User) domain.Roles {
	var (
		roles   domain.Roles
		dropped []string
	)
	for _, token := range explicit {
		if strings.TrimSpace(token) == "" {
			continue
		}
		role, ok := domain.ParseRole(token)
		if !ok {
			dropped = append(dropped, token)
			continue
		}
		if !roles.Contains(role) {
			roles = append(roles, role)
		}
	}

	if len(dropped) > 0 {
		slog.Warn("unknown roles dropped from allowedRoles", "user_id", caller.ID, "dropped", dropped)
	}
	if len(roles) == 0 {
		return append(domain.Roles(nil), caller.Roles...)
	}
	return roles
}
