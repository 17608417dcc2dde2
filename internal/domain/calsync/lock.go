package calsync

import (
	"fmt"
)

// lockCalendar сериализует входящие синхронизации и первичную выгрузку
// событий одного календаря пользователя
func (s *Service) lockCalendar(userID int, calendarID string) func() {
	key := pullKey(userID, calendarID)
	s.locks.Lock(key)

	return func() {
		// ошибка возможна только для ключа, который не захватывали
		_ = s.locks.Unlock(key)
	}
}

func pullKey(userID int, calendarID string) string {
	return fmt.Sprintf("%d/%s", userID, calendarID)
}
