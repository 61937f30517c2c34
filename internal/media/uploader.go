// Package media реализует загрузку медиафайлов (аватаров и обложек профиля)
// во внешнее S3-совместимое хранилище с возвратом публичной ссылки.
package media

import (
	"context"
	"io"
)

// Uploader описывает контракт внешнего сервиса загрузки медиафайлов.
// Реализация принимает содержимое файла и возвращает публичную ссылку на него.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, contentType string) (string, error)
}
