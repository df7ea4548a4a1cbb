package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"lms_backend/internal/model"

	"github.com/google/uuid"
)

// CertificateIssuer 证书签发协作方。签发失败由调用方记日志吞掉，
// 永远不能把完成状态的提交拖下水。
type CertificateIssuer interface {
	Generate(ctx context.Context, user *model.User, course *model.Course) (string, error)
}

const certificateTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Certificate of Completion</title></head>
<body>
  <div class="certificate certificate-{{.Template}}">
    <h1>Certificate of Completion</h1>
    <p>This certifies that</p>
    <h2>{{.UserName}}</h2>
    <p>has successfully completed the course</p>
    <h3>{{.CourseTitle}}</h3>
    <p>Issued on {{.IssuedOn}}</p>
    <p class="serial">Serial: {{.Serial}}</p>
  </div>
</body>
</html>`

// StorageCertificateIssuer 渲染HTML证书并上传到对象存储，返回访问URL
type StorageCertificateIssuer struct {
	Storage *StorageService
	tmpl    *template.Template
}

func NewCertificateIssuer(storage *StorageService) *StorageCertificateIssuer {
	return &StorageCertificateIssuer{
		Storage: storage,
		tmpl:    template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

func (i *StorageCertificateIssuer) Generate(ctx context.Context, user *model.User, course *model.Course) (string, error) {
	serial := uuid.New().String()

	var buf bytes.Buffer
	err := i.tmpl.Execute(&buf, map[string]string{
		"Template":    course.CertificateTemplate,
		"UserName":    user.Name,
		"CourseTitle": course.Title,
		"IssuedOn":    time.Now().Format("2006-01-02"),
		"Serial":      serial,
	})
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("certificates/%d/%s.html", course.ID, serial)
	return i.Storage.Upload(ctx, filename, &buf, int64(buf.Len()), "text/html")
}
