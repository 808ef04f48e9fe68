package handler

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// stageFile はmultipartのファイルを一時ディレクトリへ保存してパスを返す。
// フィールド自体が無いときは空文字を返す（必須かどうかはusecaseが判断する）。
// ストレージへのアップロード後に一時ファイルは消される。
func stageFile(c echo.Context, field, tempDir string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		//フィールドが無い扱い。必須判定はusecase側に任せる。
		return "", nil
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}

	// ファイル名の衝突を避けるためUUIDを前置する
	dstPath := filepath.Join(tempDir, uuid.NewString()+"_"+filepath.Base(fh.Filename))

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}

	return dstPath, nil
}

// エラー時に残った一時ファイルを片付ける
func removeStaged(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
